// Command swp-recv listens for a Sliding Window Protocol peer and writes
// delivered application payloads to stdout in order.
package main

import (
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/ARwMq9b6/swp/link"
	"github.com/ARwMq9b6/swp/swp"
	"github.com/ARwMq9b6/swp/swplog"
)

func main() {
	if err := _main(); err != nil {
		defer os.Exit(1)
		glog.Errorf("%s", swplog.FatalString(err))
	}
}

func _main() error {
	var configFile string
	flag.StringVar(&configFile, "c", "./swp-recv.toml", "path of config file")
	flag.Parse()

	conf, err := newConfig(configFile)
	if err != nil {
		return err
	}

	ep, err := link.Listen(conf.Listen, conf.LossProbability)
	if err != nil {
		return err
	}
	defer ep.Close()

	receiver := swp.NewReceiver(ep)
	defer receiver.Close()

	for {
		payload := receiver.Recv()
		if _, err := os.Stdout.Write(payload); err != nil {
			return err
		}
	}
}
