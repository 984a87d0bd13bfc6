package startup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"library-converter/internal/logging"
	"library-converter/internal/tools"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// RequiredTools are the external programs the converter invokes.
var RequiredTools = []string{"cjxl", "magick", "exiftool", "ffmpeg", "ffprobe"}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// CheckTools logs which external tools are on PATH and returns their
// availability. Missing tools are not fatal: image conversion falls back to
// the next strategy and assets needing an absent tool fail individually.
func CheckTools(ctx context.Context, runner tools.Runner) map[string]bool {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("EXTERNAL TOOLS")
	logging.Info("------------------------------------------------------------")

	available := tools.Available(RequiredTools...)
	for _, name := range RequiredTools {
		if !available[name] {
			logging.Warn("  [MISSING] %s", name)
			continue
		}
		logging.Info("  [OK] %s", name)
		if logging.IsDebugEnabled() {
			if version := toolVersion(ctx, runner, name); version != "" {
				logging.Debug("    %s", version)
			}
		}
	}
	return available
}

// toolVersion returns the first line of a tool's version output.
func toolVersion(ctx context.Context, runner tools.Runner, name string) string {
	arg := "-version"
	switch name {
	case "cjxl", "magick":
		arg = "--version"
	case "exiftool":
		arg = "-ver"
	}

	output, err := runner.Run(ctx, 5*time.Second, name, arg)
	if err != nil {
		logging.Debug("    failed to get %s version: %v", name, err)
		return ""
	}
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(lines[0])
}

// LogMemoryInit opens the memory section.
func LogMemoryInit() {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY")
	logging.Info("------------------------------------------------------------")
}

// LogVipsInit logs the libvips fallback state.
func LogVipsInit(enabled bool, err error) {
	if !enabled {
		logging.Debug("  libvips fallback disabled (set IMAGE_VIPS_FALLBACK=true to enable)")
		return
	}
	if err != nil {
		logging.Warn("  libvips fallback unavailable: %v", err)
		return
	}
	logging.Info("  [OK] libvips fallback ready")
}

// LogLedgerInit logs ledger initialization
func LogLedgerInit(path, runID string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LEDGER")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Ledger ready in %v: %s", duration, path)
	logging.Info("  Run ID: %s", runID)
}

// LogConnectivity logs the result of the catalog connectivity check.
func LogConnectivity(baseURL string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CATALOG")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Connected to %s in %v", baseURL, duration.Round(time.Millisecond))
}

// LogDiscovery logs the number of assets selected for the run.
func LogDiscovery(count int, duration time.Duration) {
	logging.Info("  [OK] Discovered %d assets in %v", count, duration.Round(time.Millisecond))
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes, err
}

// LogServerStarted logs the status server endpoints.
func LogServerStarted(router *mux.Router, port string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("STATUS SERVER")
	logging.Info("------------------------------------------------------------")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	for _, route := range routes {
		logging.Info("  %-6s http://0.0.0.0:%s%s", route.Method, port, route.Path)
	}
}

// LogRunStarted marks the beginning of processing.
func LogRunStarted(dryRun bool, startupDuration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	if dryRun {
		logging.Info("RUN STARTED (dry run, nothing will be modified)")
	} else {
		logging.Info("RUN STARTED")
	}
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time: %v", startupDuration.Round(time.Millisecond))
	logging.Info("  Press Ctrl+C to stop after the current assets")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    __    _ __                             ______
   / /   (_) /_  _________ ________  __   / ____/___  ____ _   __
  / /   / / __ \/ ___/ __ '/ ___/ / / /  / /   / __ \/ __ \ | / /
 / /___/ / /_/ / /  / /_/ / /  / /_/ /  / /___/ /_/ / / / / |/ /
/_____/_/_.___/_/   \__,_/_/   \__, /   \____/\____/_/ /_/|___/
                              /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool accepts true/false, 1/0, yes/no and on/off in any case.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
}
