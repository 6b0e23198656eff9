// Command routerd is a minimal single-process demo of the pubsub routing
// core: it brings up a Tables at the configured tier, attaches a handful of
// loopback faces, and logs every declaration and data sample it routes.
// It exists to exercise the core end to end, not as a deployable router.
package main

import (
	"fmt"
	"os"

	logging "github.com/ipfs/go-log"
	"github.com/spf13/cobra"

	pubsub "github.com/meshspace/pubsubrouter"
	"github.com/meshspace/pubsubrouter/internal/config"
)

var log = logging.Logger("routerd")

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cfg := config.Default()
	var stats bool

	cmd := &cobra.Command{
		Use:           "routerd",
		Short:         "run a single-process pubsub routing core demo",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, stats)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Pid, "pid", cfg.Pid, "this node's own peer id (base58); random if unset")
	flags.StringVar(&cfg.WhatAmI, "whatami", cfg.WhatAmI, "this node's own tier: router, peer or client")
	flags.DurationVar(&cfg.ClockSkew, "clock-skew", cfg.ClockSkew, "max accepted skew of a remote HLC timestamp ahead of local time")
	flags.BoolVar(&stats, "stats", false, "snapshot and log face/subscription counts before exiting")

	return cmd
}

func run(cfg config.Config, stats bool) error {
	pid, err := cfg.ParsedPid()
	if err != nil {
		return err
	}
	whatami, err := cfg.ParsedWhatAmI()
	if err != nil {
		return err
	}

	clock := pubsub.NewDefaultClock(pid, cfg.ClockSkew)
	tables := pubsub.NewTables(pid, whatami, pubsub.WithClock(clock))
	defer tables.Close()

	log.Infof("routerd up: pid=%s whatami=%s", pid, whatami)

	pub := &pubsub.LoopbackPrimitives{
		OnSubscriber: func(key pubsub.ResKey, info pubsub.SubInfo, treeSID *pubsub.ZInt) {
			log.Infof("subscriber %s mode=%v", key, info.Mode)
		},
	}
	sub := &pubsub.LoopbackPrimitives{
		OnData: func(key pubsub.ResKey, payload []byte, reliability pubsub.Reliability, cc pubsub.CongestionControl, info *pubsub.DataInfo, routingContext *pubsub.ZInt) {
			log.Infof("data %s (%d bytes)", key, len(payload))
		},
	}

	subFace := tables.AddFace(pid+"-sub", pubsub.Client, sub)
	pubFace := tables.AddFace(pid+"-pub", pubsub.Client, pub)

	const demoResource = "demo/greeting"
	tables.DeclareResourceMapping(subFace, 1, demoResource)
	tables.DeclareClientSubscription(subFace, 1, "", pubsub.SubInfo{Reliability: pubsub.Reliable, Mode: pubsub.Push})

	tables.DeclareResourceMapping(pubFace, 1, demoResource)
	tables.RouteData(pubFace, 1, "", pubsub.Drop, nil, []byte("hello from routerd"))

	if stats {
		registry := pubsub.NewRegistry()
		registry.Snapshot(tables)
		log.Infof("stats: client-faces=%d router-faces=%d peer-faces=%d router-subscribed=%v peer-subscribed=%v",
			registry.FaceCount(pubsub.Client), registry.FaceCount(pubsub.Router), registry.FaceCount(pubsub.Peer),
			registry.RouterSubscribedResources(), registry.PeerSubscribedResources())
	}

	return nil
}
