//go:build linux

package storage

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gopsdisk "github.com/shirou/gopsutil/v3/disk"
)

const sectorSize = 512

// SysfsDiscoverer inventories disks from /sys/block and annotates
// mounted filesystems via gopsutil.
type SysfsDiscoverer struct {
	root string
}

// NewDiscoverer creates the platform discoverer.
func NewDiscoverer() *SysfsDiscoverer {
	return &SysfsDiscoverer{root: "/sys/block"}
}

func (d *SysfsDiscoverer) Discover(ctx context.Context) (*Topology, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}

	mounts := mountsByDevice(ctx)

	topology := &Topology{}
	for _, entry := range entries {
		name := entry.Name()
		if !isInstallableDisk(name) {
			continue
		}

		diskDir := filepath.Join(d.root, name)
		disk := Disk{
			Name:      name,
			Device:    "/dev/" + name,
			SizeBytes: readSectors(filepath.Join(diskDir, "size")) * sectorSize,
			Model:     readSysfsString(filepath.Join(diskDir, "device", "model")),
			Vendor:    readSysfsString(filepath.Join(diskDir, "device", "vendor")),
			Removable: readSysfsString(filepath.Join(diskDir, "removable")) == "1",
		}

		if disk.SizeBytes == 0 {
			continue
		}

		disk.Partitions = discoverPartitions(diskDir, name, mounts)
		topology.Disks = append(topology.Disks, disk)
	}

	return topology, nil
}

func discoverPartitions(diskDir, diskName string, mounts map[string]mountInfo) []Partition {
	entries, err := os.ReadDir(diskDir)
	if err != nil {
		return nil
	}

	var partitions []Partition
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, diskName) {
			continue
		}
		if _, err := os.Stat(filepath.Join(diskDir, name, "partition")); err != nil {
			continue
		}

		part := Partition{
			Name:      name,
			SizeBytes: readSectors(filepath.Join(diskDir, name, "size")) * sectorSize,
		}
		if mount, ok := mounts["/dev/"+name]; ok {
			part.Filesystem = mount.fstype
			part.MountPoint = mount.mountpoint
		}
		partitions = append(partitions, part)
	}
	return partitions
}

type mountInfo struct {
	mountpoint string
	fstype     string
}

func mountsByDevice(ctx context.Context) map[string]mountInfo {
	mounts := make(map[string]mountInfo)
	stats, err := gopsdisk.PartitionsWithContext(ctx, false)
	if err != nil {
		log.Warn("reading mounted filesystems failed", "error", err)
		return mounts
	}
	for _, stat := range stats {
		if _, ok := mounts[stat.Device]; !ok {
			mounts[stat.Device] = mountInfo{mountpoint: stat.Mountpoint, fstype: stat.Fstype}
		}
	}
	return mounts
}

// isInstallableDisk filters out pseudo and read-only devices that can
// never hold the installation.
func isInstallableDisk(name string) bool {
	for _, prefix := range []string{"loop", "ram", "zram", "sr", "fd", "dm-", "md"} {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	return true
}

func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readSectors(path string) uint64 {
	value, err := strconv.ParseUint(readSysfsString(path), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
