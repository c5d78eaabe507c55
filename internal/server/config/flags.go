package config

import (
	"flag"
	"os"
	"time"

	"github.com/okatenko/medqueue/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   PostgreSQL DSN
//	-s string   session token HMAC secret key
//	-t int      session token validity, minutes
//	-r string   Redis address for the login rate limiter (empty uses the in-process one)
//	-p string   Redis password
//	-l int      login attempts allowed per window
//	-w int      login rate window, seconds
//	-n string   bootstrap staff account name
//	-k string   bootstrap staff account password
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and then converted to
//     time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-r", "-p", "-l", "-w", "-n", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidityDuration := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")

	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address (rate limiter)")
	fs.StringVar(&config.RedisPassword, "p", config.RedisPassword, "redis password")
	fs.IntVar(&config.LoginRateLimit, "l", config.LoginRateLimit, "login attempts per window")

	loginRateWindow := fs.Int("w", int(config.LoginRateWindow.Seconds()), "login rate window (in seconds)")

	fs.StringVar(&config.BootstrapStaffName, "n", config.BootstrapStaffName, "bootstrap staff account name")
	fs.StringVar(&config.BootstrapStaffPassword, "k", config.BootstrapStaffPassword, "bootstrap staff account password")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidityDuration) * time.Minute
	config.LoginRateWindow = time.Duration(*loginRateWindow) * time.Second
}
