// Command presenced runs the presence detection engine: it ingests tag
// sightings over HTTP and MQTT, drives per-tag state machines, and
// delivers confirmed check-in/check-out events to a webhook endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/presence-engine/internal/config"
	"github.com/sweeney/presence-engine/internal/delivery"
	"github.com/sweeney/presence-engine/internal/logic"
	"github.com/sweeney/presence-engine/internal/mqtt"
	"github.com/sweeney/presence-engine/internal/pipeline"
	"github.com/sweeney/presence-engine/internal/status"
	"github.com/sweeney/presence-engine/internal/store"
	"github.com/sweeney/presence-engine/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (built-in defaults when empty)")
	httpAddr := flag.String("http", "", "override HTTP listen address")
	broker := flag.String("broker", "", "override MQTT broker address")
	storePath := flag.String("store", "", "override SQLite store path")

	registerTag := flag.String("register-tag", "", "register a tag id and exit")
	claimTag := flag.String("claim", "", `claim a tag for an identity ("tag=identity") and exit`)
	setProfile := flag.String("set-profile", "", `assign an entrance profile ("tag=profile") and exit`)
	deleteTag := flag.String("delete-tag", "", "delete a tag and exit")
	registerReceiver := flag.String("register-receiver", "", `associate a receiver with a zone ("receiver=zone") and exit`)
	listTags := flag.Bool("list-tags", false, "print registered tags and exit")

	flag.Parse()

	cfg, err := loadConfig(*configPath, *httpAddr, *broker, *storePath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if action := adminAction(*registerTag, *claimTag, *setProfile, *deleteTag, *registerReceiver, *listTags); action != nil {
		if err := runAdmin(cfg.StorePath, action); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func loadConfig(path, httpAddr, broker, storePath string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if broker != "" {
		cfg.MQTT.Broker = broker
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	return cfg, nil
}

// adminAction returns the store operation requested by the admin flags,
// or nil when none was given. At most one flag is honored.
func adminAction(registerTag, claimTag, setProfile, deleteTag, registerReceiver string, listTags bool) func(*store.Store) error {
	switch {
	case registerTag != "":
		return func(s *store.Store) error {
			tag, err := s.RegisterTag(registerTag)
			if err != nil {
				return err
			}
			fmt.Printf("registered %s\n", tag.ID)
			return nil
		}
	case claimTag != "":
		return func(s *store.Store) error {
			tag, identity, err := splitAssignment(claimTag)
			if err != nil {
				return err
			}
			if _, err := s.RegisterTag(tag); err != nil {
				return err
			}
			if err := s.ClaimTag(tag, identity); err != nil {
				return err
			}
			fmt.Printf("claimed %s for %s\n", tag, identity)
			return nil
		}
	case setProfile != "":
		return func(s *store.Store) error {
			tag, profile, err := splitAssignment(setProfile)
			if err != nil {
				return err
			}
			return s.SetTagProfile(tag, profile)
		}
	case deleteTag != "":
		return func(s *store.Store) error {
			return s.DeleteTag(deleteTag)
		}
	case registerReceiver != "":
		return func(s *store.Store) error {
			receiver, zone, err := splitAssignment(registerReceiver)
			if err != nil {
				return err
			}
			return s.RegisterReceiver(receiver, zone)
		}
	case listTags:
		return func(s *store.Store) error {
			tags, err := s.ListTags()
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Printf("%s\tidentity=%s\tprofile=%s\tzone=%s\n", t.ID, t.Identity, t.Profile, t.LastZone)
			}
			return nil
		}
	}
	return nil
}

func runAdmin(storePath string, action func(*store.Store) error) error {
	st, err := store.New(storePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return action(st)
}

// splitAssignment parses a "key=value" flag argument.
func splitAssignment(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" || value == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}
	return key, value, nil
}

func run(cfg config.Config) error {
	st, err := store.New(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		HTTPAddr:       cfg.HTTPAddr,
		Broker:         cfg.MQTT.Broker,
		Endpoint:       cfg.Delivery.Endpoint,
		QueueCapacity:  cfg.Delivery.QueueCapacity,
		SweepMs:        cfg.Delivery.SweepIntervalMs,
		AbsenceSweepMs: cfg.AbsenceSweepMs,
	})

	sender := delivery.NewWebhookSender(cfg.Delivery.Endpoint, cfg.Delivery.Token, cfg.DeliveryTimeout())
	deliverer := delivery.New(sender, cfg.DeliveryConfig())
	tracker.SetQueueSource(deliverer.Stats)

	sink := &recordingSink{store: st, deliverer: deliverer, tracker: tracker}
	pl := pipeline.New(st, st, logIdentityService{}, sink, cfg.ProfileSet())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deliverer.Run(ctx)

	if cfg.MQTT.Broker != "" {
		listener, err := mqtt.NewRealListener(cfg.MQTT.Broker, func(s mqtt.Sighting) {
			if _, err := pl.Ingest(s.TagID, s.ReceiverID, s.Strength); err != nil {
				log.Printf("mqtt ingest %s: %v", s.TagID, err)
			}
		})
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		defer listener.Close()
		if err := listener.Start(); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		tracker.SetMQTTSource(listener.IsConnected)
		log.Printf("mqtt subscribed to %s on %s", mqtt.TopicFilter, cfg.MQTT.Broker)
	}

	srv := web.New(cfg.HTTPAddr, tracker, pl, cfg.CertaintyConstants())
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()
	defer srv.Shutdown(context.Background())
	log.Printf("http listening on %s", cfg.HTTPAddr)

	ticker := time.NewTicker(cfg.AbsenceSweepInterval())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("started: store=%s endpoint=%s", cfg.StorePath, cfg.Delivery.Endpoint)
	return runLoop(pl, tracker, ticker.C, sigCh)
}

// runLoop owns the periodic work: the absence sweep and the tag-count
// refresh. Queue and MQTT state reach the tracker through live sources,
// not this loop. Returns when a shutdown signal arrives.
func runLoop(pl *pipeline.Pipeline, tracker *status.Tracker, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			return nil

		case <-tick:
			pl.SweepAbsent()
			refreshTracker(pl, tracker)
		}
	}
}

func refreshTracker(pl *pipeline.Pipeline, tracker *status.Tracker) {
	snaps := pl.Registry().Snapshot(time.Now())
	inside := 0
	for _, s := range snaps {
		if s.State == logic.ZoneInside {
			inside++
		}
	}
	tracker.UpdateTags(len(snaps), inside)
}

// recordingSink persists committed events and counts them before
// handing them to the deliverer.
type recordingSink struct {
	store     *store.Store
	deliverer *delivery.Deliverer
	tracker   *status.Tracker
}

func (s *recordingSink) Deliver(e delivery.Event) {
	if err := s.store.RecordEvent(e.ID, string(e.Kind), e.Identity, e.Zone, e.Timestamp); err != nil {
		log.Printf("record event %s: %v", e.ID, err)
	}
	s.tracker.CountEvent(e.Kind)
	s.deliverer.Deliver(e)
}

// logIdentityService satisfies the identity port when no external
// identity system is wired up. The webhook endpoint carries the event;
// locally the transition is just logged.
type logIdentityService struct{}

func (logIdentityService) CheckIn(identity, zone string, at time.Time) error {
	log.Printf("identity: %s checked in (zone=%q)", identity, zone)
	return nil
}

func (logIdentityService) CheckOut(identity, zone string, at time.Time) error {
	log.Printf("identity: %s checked out (zone=%q)", identity, zone)
	return nil
}
