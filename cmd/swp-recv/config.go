package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// config is a flat TOML document decoded straight into a struct.
type config struct {
	Listen          string  `toml:"listen"`
	LossProbability float64 `toml:"loss_probability"`
}

func newConfig(fpath string) (*config, error) {
	var c config
	if _, err := toml.DecodeFile(fpath, &c); err != nil {
		return nil, errors.WithStack(err)
	}
	if c.Listen == "" {
		return nil, errors.New("config.toml: [listen] must be set")
	}
	return &c, nil
}
