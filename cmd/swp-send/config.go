package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// config is a flat TOML document decoded straight into a struct.
type config struct {
	Remote          string  `toml:"remote"`
	LossProbability float64 `toml:"loss_probability"`
}

func newConfig(fpath string) (*config, error) {
	var c config
	if _, err := toml.DecodeFile(fpath, &c); err != nil {
		return nil, errors.WithStack(err)
	}
	if c.Remote == "" {
		return nil, errors.New("config.toml: [remote] must be set")
	}
	return &c, nil
}
