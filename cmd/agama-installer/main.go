package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/balsa-asanovic/agama/internal/bootloader"
	"github.com/balsa-asanovic/agama/internal/config"
	"github.com/balsa-asanovic/agama/internal/executor"
	"github.com/balsa-asanovic/agama/internal/hwinfo"
	"github.com/balsa-asanovic/agama/internal/installer"
	"github.com/balsa-asanovic/agama/internal/l10n"
	"github.com/balsa-asanovic/agama/internal/logging"
	"github.com/balsa-asanovic/agama/internal/notify"
	"github.com/balsa-asanovic/agama/internal/progress"
	"github.com/balsa-asanovic/agama/internal/software"
	"github.com/balsa-asanovic/agama/internal/storage"
)

var (
	version = "0.1.0"
	cfgFile string

	diskFlag     string
	productFlag  string
	languageFlag string
)

var rootCmd = &cobra.Command{
	Use:   "agama-installer",
	Short: "Agama Installer",
	Long:  `Agama Installer - unattended Linux installation: probes the system, negotiates a storage layout and installs the selected product`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Probe the system and run the installation with the configured defaults",
	Run: func(cmd *cobra.Command, args []string) {
		runInstallation()
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe languages, products and disks without installing",
	Run: func(cmd *cobra.Command, args []string) {
		runProbe()
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run the installation, optionally overriding the probed selections",
	Run: func(cmd *cobra.Command, args []string) {
		runInstallation()
	},
}

var configCmd = &cobra.Command{
	Use:   "config [init]",
	Short: "Show the effective configuration, or write the defaults with 'init'",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 && args[0] == "init" {
			initConfig()
			return
		}
		showConfig()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Agama Installer v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/agama/installer.yaml)")

	installCmd.Flags().StringVar(&diskFlag, "disk", "", "install to this disk instead of the probed default")
	installCmd.Flags().StringVar(&productFlag, "product", "", "install this product instead of the probed default")
	installCmd.Flags().StringVar(&languageFlag, "language", "", "install with this language instead of the probed default")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the configuration, downgrading bad
// values to their defaults.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	warnings := cfg.Validate()

	setupLogging(cfg)
	config.LogWarnings(logging.L("config"), warnings)

	return cfg
}

// setupLogging initializes the process logger, teeing into a run log
// file when one can be created.
func setupLogging(cfg *config.Config) {
	var output io.Writer = os.Stderr
	if runLog, err := logging.OpenRunLog(cfg.LogDir, 10); err == nil {
		output = logging.TeeWriter(os.Stderr, runLog)
	} else {
		fmt.Fprintf(os.Stderr, "Run log unavailable: %v\n", err)
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, output)
}

// buildManager wires the subsystems into an installer manager.
func buildManager(cfg *config.Config) *installer.Manager {
	runner := executor.New()

	storageManager := storage.NewManager(storage.NewDiscoverer())
	negotiator := storage.NewNegotiator(storageManager, storage.NewGuidedEngine(), storage.ProposalSettings{
		Filesystem:         cfg.Storage.Filesystem,
		UseLVM:             cfg.Storage.UseLVM,
		EncryptionPassword: cfg.Storage.EncryptionPassword,
		SwapSizeMB:         cfg.Storage.SwapSizeMB,
		EFI:                bootloader.FirmwareIsEFI(),
	})

	return installer.New(installer.Deps{
		Languages:       l10n.NewCatalog(cfg.LanguagesFile),
		Software:        software.NewService(software.NewZypperProvider(), cfg.ProductsFile),
		Storage:         storageManager,
		Negotiator:      negotiator,
		Partitioner:     storage.NewPartitioner(runner),
		Bootloader:      bootloader.NewService(runner),
		DefaultLanguage: cfg.DefaultLanguage,
	})
}

// attachPublisher connects the manager to the notification server when
// one is configured. Returns a nil-safe close function.
func attachPublisher(cfg *config.Config, manager *installer.Manager) func() {
	if cfg.ServerURL == "" {
		return func() {}
	}

	publisher := notify.NewPublisher(notify.Config{
		ServerURL: cfg.ServerURL,
		AuthToken: cfg.AuthToken,
	})
	manager.Progress().Subscribe(publisher.ProgressCallback())
	manager.OnStatusChange(func(s installer.Status) error {
		return publisher.PublishStatus(s.String())
	})
	return publisher.Close
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runProbe() {
	cfg := loadConfig()
	manager := buildManager(cfg)

	ctx, cancel := signalContext()
	defer cancel()

	logHardware(ctx)

	if !manager.Probe(ctx) {
		fmt.Fprintln(os.Stderr, "Probe failed; see the log for details.")
		os.Exit(1)
	}

	fmt.Println("Languages:")
	for code, lang := range manager.Languages() {
		fmt.Printf("  %-8s %s\n", code, lang.Name)
	}
	fmt.Println("Products:")
	for _, product := range manager.Products() {
		fmt.Printf("  %-12s %s\n", product.ID, product.Name)
	}
	fmt.Println("Disks:")
	for _, disk := range manager.Disks() {
		fmt.Printf("  %-8s %4d GiB  %s\n", disk.Name, disk.SizeBytes>>30, disk.Model)
	}

	opts := manager.Options()
	fmt.Printf("Defaults: language=%s product=%s disk=%s\n", opts.Language, opts.Product, opts.Disk)
}

func runInstallation() {
	cfg := loadConfig()
	if productFlag == "" {
		productFlag = cfg.DefaultProduct
	}

	manager := buildManager(cfg)
	closePublisher := attachPublisher(cfg, manager)
	defer closePublisher()

	manager.Progress().Subscribe(printProgress)

	ctx, cancel := signalContext()
	defer cancel()

	logHardware(ctx)

	fmt.Printf("Starting Agama Installer v%s\n", version)
	if !manager.Probe(ctx) {
		fmt.Fprintln(os.Stderr, "Probe failed; see the log for details.")
		os.Exit(1)
	}

	if err := applyOverrides(ctx, manager); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid selection: %v\n", err)
		os.Exit(1)
	}

	opts := manager.Options()
	fmt.Printf("Installing %s to %s (language %s)\n", opts.Product, opts.Disk, opts.Language)

	if err := manager.Install(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Installation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Installation finished. Remove the installation medium and reboot.")
}

// applyOverrides replaces the probed defaults with the flag values.
func applyOverrides(ctx context.Context, manager *installer.Manager) error {
	if languageFlag != "" {
		if err := manager.SetLanguage(languageFlag); err != nil {
			return err
		}
	}
	if productFlag != "" {
		if err := manager.SetProduct(ctx, productFlag); err != nil {
			return err
		}
	}
	if diskFlag != "" {
		if err := manager.SetDisk(ctx, diskFlag); err != nil {
			return err
		}
	}
	return nil
}

func printProgress(e progress.Event) {
	if e.Finished {
		fmt.Printf("[%s] done\n", e.Phase)
		return
	}
	if e.Step == "" {
		return
	}
	if e.TotalSteps > 0 {
		fmt.Printf("[%s] (%d/%d) %s\n", e.Phase, e.CurrentStep, e.TotalSteps, e.Step)
		return
	}
	fmt.Printf("[%s] %s\n", e.Phase, e.Step)
}

func logHardware(ctx context.Context) {
	hw := hwinfo.Collect(ctx)
	logging.L("main").Info("host inventory",
		"hostname", hw.Hostname,
		"os", hw.OS,
		"kernel", hw.Kernel,
		"arch", hw.Architecture,
		"memory_mb", hw.MemoryMB)
}

func showConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("server_url:       %s\n", cfg.ServerURL)
	fmt.Printf("default_language: %s\n", cfg.DefaultLanguage)
	fmt.Printf("default_product:  %s\n", cfg.DefaultProduct)
	fmt.Printf("products_file:    %s\n", cfg.ProductsFile)
	fmt.Printf("languages_file:   %s\n", cfg.LanguagesFile)
	fmt.Printf("log_level:        %s\n", cfg.LogLevel)
	fmt.Printf("log_format:       %s\n", cfg.LogFormat)
	fmt.Printf("storage:\n")
	fmt.Printf("  filesystem:   %s\n", cfg.Storage.Filesystem)
	fmt.Printf("  use_lvm:      %v\n", cfg.Storage.UseLVM)
	fmt.Printf("  swap_size_mb: %d\n", cfg.Storage.SwapSizeMB)
}

func initConfig() {
	cfg := config.Default()
	if err := config.SaveTo(cfg, cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Default configuration written.")
}
