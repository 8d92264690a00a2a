//go:build linux

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeSysfsDisk(t *testing.T, root, name, sectors, removable string, partitions map[string]string) {
	t.Helper()
	diskDir := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Join(diskDir, "device"), 0755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(diskDir, "size"), []byte(sectors+"\n"), 0644)
	os.WriteFile(filepath.Join(diskDir, "removable"), []byte(removable+"\n"), 0644)
	os.WriteFile(filepath.Join(diskDir, "device", "model"), []byte("TestDisk\n"), 0644)

	for part, partSectors := range partitions {
		partDir := filepath.Join(diskDir, part)
		if err := os.MkdirAll(partDir, 0755); err != nil {
			t.Fatal(err)
		}
		os.WriteFile(filepath.Join(partDir, "partition"), []byte("1\n"), 0644)
		os.WriteFile(filepath.Join(partDir, "size"), []byte(partSectors+"\n"), 0644)
	}
}

func TestSysfsDiscovery(t *testing.T) {
	root := t.TempDir()
	writeSysfsDisk(t, root, "sda", "1048576000", "0", map[string]string{"sda1": "1024000"})
	writeSysfsDisk(t, root, "loop0", "65536", "0", nil)
	writeSysfsDisk(t, root, "sr0", "1317888", "1", nil)

	topology, err := (&SysfsDiscoverer{root: root}).Discover(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(topology.Disks) != 1 {
		t.Fatalf("expected only sda to survive filtering, got %v", topology.DiskNames())
	}

	sda := topology.Disks[0]
	if sda.Device != "/dev/sda" || sda.SizeBytes != 1048576000*sectorSize {
		t.Fatalf("unexpected disk: %+v", sda)
	}
	if sda.Model != "TestDisk" {
		t.Fatalf("model = %q", sda.Model)
	}
	if len(sda.Partitions) != 1 || sda.Partitions[0].Name != "sda1" {
		t.Fatalf("unexpected partitions: %+v", sda.Partitions)
	}
}

func TestSysfsDiscoverySkipsZeroSizeDisks(t *testing.T) {
	root := t.TempDir()
	writeSysfsDisk(t, root, "sda", "0", "0", nil)

	topology, err := (&SysfsDiscoverer{root: root}).Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(topology.Disks) != 0 {
		t.Fatalf("zero-size disk should be skipped, got %v", topology.DiskNames())
	}
}
