// Command ospfapd is the helper layer named in spec.md section 6: it
// wires interfaces, areas and metrics from a config file or flags into a
// running ospfap.Router and keeps it alive until interrupted.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ospf-areaproxy/ospfap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// eventLoop is the single goroutine every timer callback and every
// received packet is marshaled onto, giving the daemon the
// single-threaded discipline spec.md section 5 assumes of the core even
// though timers fire on their own goroutines and each interface has its
// own socket-reading goroutine.
type eventLoop struct {
	work chan func()
	done chan struct{}
}

func newEventLoop() *eventLoop {
	return &eventLoop{work: make(chan func(), 256), done: make(chan struct{})}
}

func (l *eventLoop) run() {
	for {
		select {
		case fn := <-l.work:
			fn()
		case <-l.done:
			return
		}
	}
}

func (l *eventLoop) dispatch(fn func()) {
	select {
	case l.work <- fn:
	case <-l.done:
	}
}

func (l *eventLoop) stop() { close(l.done) }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ospfapd",
		Short: "OSPF area-proxy routing daemon",
		RunE:  runDaemon,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default ./ospfapd.yaml)")
	cmd.Flags().Uint32("router-id", 0, "this router's RouterID, dotted-decimal as a uint32")
	cmd.Flags().Uint32("area-id", 0, "this router's local AreaID")
	cmd.Flags().Bool("enable-area-proxy", false, "originate AreaLSAs/L2SummaryLSAs when elected area leader")
	cmd.Flags().String("log-level", "info", "logrus level: debug, info, warn, error")
	cmd.Flags().Int("metrics-port", 0, "if nonzero, serve Prometheus metrics on this port")

	viper.BindPFlag("router_id", cmd.Flags().Lookup("router-id"))
	viper.BindPFlag("area_id", cmd.Flags().Lookup("area-id"))
	viper.BindPFlag("enable_area_proxy", cmd.Flags().Lookup("enable-area-proxy"))
	viper.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))
	viper.BindPFlag("metrics_port", cmd.Flags().Lookup("metrics-port"))

	return cmd
}

func loadConfig() (ospfap.Config, string, int, error) {
	viper.SetEnvPrefix("OSPFAPD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ospfapd")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/ospfapd")
	}

	cfg := ospfap.DefaultConfig()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return cfg, "", 0, fmt.Errorf("read config: %w", err)
		}
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, "", 0, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, viper.GetString("log_level"), viper.GetInt("metrics_port"), nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, logLevel, metricsPort, err := loadConfig()
	if err != nil {
		return err
	}

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(logLevel); err == nil {
		log.SetLevel(lvl)
	}

	loop := newEventLoop()
	go loop.run()
	defer loop.stop()

	router, err := ospfap.NewRouterFromConfig(cfg, loop.dispatch)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	router.SetLogger(ospfap.NewLogrusLogger(log, cfg.RouterID))

	reg := prometheus.NewRegistry()
	met := ospfap.NewMetrics(reg)
	router.SetMetrics(met)

	if metricsPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go http.ListenAndServe(fmt.Sprintf(":%d", metricsPort), mux)
		log.Infof("metrics listening on :%d", metricsPort)
	}

	opener := ospfap.SystemDeviceOpener{Devices: ospfap.SystemDeviceSet{}}
	if err := router.StartApplication(opener); err != nil {
		return fmt.Errorf("start router %s: %w", cfg.RouterID, err)
	}
	router.StartReceiveLoops(loop.dispatch)
	log.Infof("router %s started in area %s", cfg.RouterID, cfg.AreaID)

	if cfg.AutoSyncInterfaces {
		go autoSyncLoop(router, opener, cfg, loop.dispatch)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	router.StopApplication()
	return nil
}

// autoSyncLoop periodically polls the host's interface set, per
// spec.md section 4.9. An InterfaceSyncInterval of zero means "sync
// once at start only": one AutoSync is dispatched and the loop returns
// without starting a ticker.
func autoSyncLoop(router *ospfap.Router, opener ospfap.RawSocketOpener, cfg ospfap.Config, dispatch func(func())) {
	if cfg.InterfaceSyncInterval == 0 {
		dispatch(func() { router.AutoSync(opener, dispatch) })
		return
	}
	ticker := time.NewTicker(time.Duration(cfg.InterfaceSyncInterval) * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		dispatch(func() { router.AutoSync(opener, dispatch) })
	}
}
