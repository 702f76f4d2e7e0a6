// Package config loads Scribe's settings.
//
// Settings are layered, lowest to highest precedence:
//
//  1. built-in defaults ([Default])
//  2. a TOML or YAML file ([WithFile])
//  3. SCRIBE_* environment variables
//  4. explicit overrides such as command-line flags ([WithOverride])
//
// The merged map is decoded into a [Config] and validated:
//
//	cfg, err := config.Load(config.WithFile("scribe.toml"))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.History.Depth)
//
// A minimal file:
//
//	[history]
//	depth = 200
//	newGroupDelay = "750ms"
//
//	[tracking]
//	enabled = true
//	user = "alice"
//
//	[store]
//	backend = "redis"
//	redis.addr = "localhost:6379"
package config
