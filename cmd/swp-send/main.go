// Command swp-send reads application data from stdin and transmits it to a
// peer running swp-recv over the Sliding Window Protocol.
package main

import (
	"bufio"
	"flag"
	"io"
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
	flag.StringVar(&configFile, "c", "./swp-send.toml", "path of config file")
	flag.Parse()

	conf, err := newConfig(configFile)
	if err != nil {
		return err
	}

	ep, err := link.Dial(conf.Remote, conf.LossProbability)
	if err != nil {
		return err
	}
	defer ep.Close()

	sender := swp.NewSender(ep)
	defer sender.Close()

	r := bufio.NewReaderSize(os.Stdin, swp.Window*1400)
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			sender.Send(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
