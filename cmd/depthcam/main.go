package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/depthview/internal/api"
	"github.com/banshee-data/depthview/internal/config"
	"github.com/banshee-data/depthview/internal/control"
	"github.com/banshee-data/depthview/internal/device"
	"github.com/banshee-data/depthview/internal/filters"
	"github.com/banshee-data/depthview/internal/fsutil"
	"github.com/banshee-data/depthview/internal/router"
	"github.com/banshee-data/depthview/internal/session"
	"github.com/banshee-data/depthview/internal/sinks"
	"github.com/banshee-data/depthview/internal/timeutil"
	"github.com/banshee-data/depthview/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Run against the synthetic camera instead of hardware")
	listen     = flag.String("listen", ":8080", "Listen address")
	configPath = flag.String("config", "", "Path to capture defaults JSON (optional)")
	mqttBroker = flag.String("mqtt", "", "MQTT broker URL, overrides the config file")
	plotDir    = flag.String("plot-dir", "", "Directory for depth heatmap PNGs, overrides the config file")
)

const controlNamespace = "DepthCam"

// applyFilterDefaults pushes the configured startup filter state through the
// same model the control surface uses, so the enable-on-write rule applies
// to config-file values too.
func applyFilterDefaults(m *filters.Model, cfg *config.CaptureDefaults) error {
	if cfg.DistanceFilterMin != nil && cfg.DistanceFilterMax != nil {
		if err := m.SetDistanceRange(*cfg.DistanceFilterMin, *cfg.DistanceFilterMax); err != nil {
			return err
		}
	}
	if cfg.IntensityFilterDb != nil {
		_, maxDb, err := m.IntensityRange()
		if err != nil {
			return err
		}
		if err := m.SetIntensityRange(*cfg.IntensityFilterDb, maxDb); err != nil {
			return err
		}
	}
	if cfg.EdgeCorrection != nil {
		if err := m.SetEdgeCorrectionEnabled(*cfg.EdgeCorrection); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()
	log.Printf("depthcam %s", version.Short())

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyCaptureDefaults()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	var dev device.Provider
	if *devMode {
		dev = device.NewMockProvider(timeutil.RealClock{})
	} else {
		// The hardware transport links in its own Provider build; this
		// binary only ships the synthetic one.
		log.Fatal("no hardware provider linked, run with -dev")
	}

	editor := device.NewEditor(dev)
	model := filters.NewModel(editor, filters.Options{
		LegacyIsolatedPixelWrite: cfg.GetLegacyIsolatedPixelWrite(),
	})
	sess := session.New(dev, editor)

	rtr := router.New(sess, router.RenderOptions{
		MinDepth: cfg.GetMinDepth(),
		MaxDepth: cfg.GetMaxDepth(),
	})
	sess.SetFrameSink(rtr.Publish)

	hist := api.NewHistogramSink()
	rtr.AddSink(hist)

	if dir := *plotDir; dir != "" || cfg.GetPlotDir() != "" {
		if dir == "" {
			dir = cfg.GetPlotDir()
		}
		plot, err := sinks.NewPlotSink(fsutil.OSFileSystem{}, dir, uint64(cfg.GetPlotStride()))
		if err != nil {
			log.Fatalf("failed to create plot sink: %v", err)
		}
		rtr.AddSink(plot)
		log.Printf("writing depth heatmaps to %s", dir)
	}

	if broker := *mqttBroker; broker != "" || cfg.GetMQTTBroker() != "" {
		if broker == "" {
			broker = cfg.GetMQTTBroker()
		}
		mqtt, err := sinks.NewMQTTSink(broker, "depthcam", cfg.GetMQTTPrefix())
		if err != nil {
			log.Fatalf("failed to connect to MQTT broker: %v", err)
		}
		defer mqtt.Close()
		rtr.AddSink(mqtt)
		log.Printf("publishing frames to %s", broker)
	}

	if err := applyFilterDefaults(model, cfg); err != nil {
		log.Fatalf("failed to apply filter defaults: %v", err)
	}

	periodUs := int(cfg.GetFramePeriod() / time.Microsecond)
	if err := sess.Start(cfg.GetROI(), cfg.GetBinning(), periodUs); err != nil {
		log.Fatalf("failed to start capture: %v", err)
	}
	defer sess.Stop()
	log.Printf("capture running: roi=%+v binning=%+v period=%s",
		cfg.GetROI(), cfg.GetBinning(), cfg.GetFramePeriod())

	srv := api.NewServer(sess, rtr, hist)
	control.Bind(srv, controlNamespace, model)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// dispatch frames to the registered sinks until shutdown
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := rtr.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("frame router stopped: %v", err)
		}
		log.Print("router routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:    *listen,
			Handler: srv.Handler(),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()
		log.Printf("listening on %s", *listen)

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
