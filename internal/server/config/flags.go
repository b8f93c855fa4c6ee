package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/pilotkeeper/internal/flagx"
)

// serverFlags lists the short flags parseFlags owns.
var serverFlags = []string{"-a", "-r", "-d", "-s", "-k", "-t", "-l", "-o", "-f",
	"-u", "-p", "-b", "-g", "-e", "-m", "-purge", "-cors", "-log"}

// parseFlags populates Config fields from command-line flags.
//
//	-a string     HTTP bind address (e.g. ":3000")
//	-r string     database driver: sqlite or postgres
//	-d string     database DSN
//	-s string     JWT HMAC secret
//	-k string     session cookie HMAC secret
//	-t duration   token validity (e.g. "360h")
//	-l duration   session validity
//	-o string     artifact backend: local or s3
//	-f string     local artifact directory
//	-u, -p        S3 user and password
//	-b, -g, -e    S3 bucket, region and base endpoint
//	-m int        max request body bytes
//	-purge        delete fingerprint images together with their records
//	-cors string  comma-separated allowed origins
//	-log string   log level
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "r", config.DatabaseDriver, "database driver (sqlite|postgres)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")
	fs.StringVar(&config.SessionSecret, "k", config.SessionSecret, "session secret key")
	fs.DurationVar(&config.TokenValidityDuration, "t", config.TokenValidityDuration, "token validity")
	fs.DurationVar(&config.SessionValidityDuration, "l", config.SessionValidityDuration, "session validity")
	fs.StringVar(&config.ArtifactBackend, "o", config.ArtifactBackend, "artifact backend (local|s3)")
	fs.StringVar(&config.ArtifactDir, "f", config.ArtifactDir, "local artifact directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.Int64Var(&config.MaxRequestBytes, "m", config.MaxRequestBytes, "max request body bytes")
	fs.BoolVar(&config.PurgeArtifactsOnDelete, "purge", config.PurgeArtifactsOnDelete, "purge artifacts on delete")
	cors := fs.String("cors", strings.Join(config.CORSOrigins, ","), "allowed CORS origins")
	fs.StringVar(&config.LogLevel, "log", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	config.CORSOrigins = splitList(*cors)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
