// Command listings reads and edits listings through the data manager. With
// the API down it still answers reads from the Redis snapshot or the
// built-in sample listings.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"realty_backend/pkg/client"
	"realty_backend/pkg/logging"
)

type cliConfig struct {
	APIURL        string        `env:"LISTINGS_API_URL" envDefault:"http://localhost:3000"`
	Token         string        `env:"LISTINGS_TOKEN"`
	Username      string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	Password      string        `env:"ADMIN_PASSWORD"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	PollInterval  time.Duration `env:"LISTINGS_POLL_INTERVAL" envDefault:"500ms"`
	MaxAttempts   int           `env:"LISTINGS_MAX_ATTEMPTS" envDefault:"10"`
	Timeout       time.Duration `env:"LISTINGS_TIMEOUT" envDefault:"10s"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"warn"`
}

const usage = `usage: listings [flags] <command> [args]

commands:
  list                     all listings (filter with -type, -city, -min-price, -max-price, -bedrooms)
  get <id|uuid|slug>       one listing
  search <term>            title, description and location search
  create [file]            create from a JSON object (file or stdin)
  update <id> [file]       partial update from a JSON object
  delete <id>              delete a listing
  status                   backend state after polling
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	_ = godotenv.Load()
	cfg := cliConfig{}
	if err := env.Parse(&cfg); err != nil {
		return err
	}

	fs := flag.NewFlagSet("listings", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage); fs.PrintDefaults() }
	propType := fs.String("type", "", "property type")
	city := fs.String("city", "", "city")
	minPrice := fs.Float64("min-price", -1, "minimum price")
	maxPrice := fs.Float64("max-price", -1, "maximum price")
	bedrooms := fs.Int("bedrooms", 0, "minimum bedrooms")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	log := logging.New(cfg.LogLevel, false)
	log.SetOutput(os.Stderr)

	api := client.NewAPIBackend(cfg.APIURL, cfg.Token, cfg.Timeout)
	opts := client.Options{
		PollInterval: cfg.PollInterval,
		MaxAttempts:  cfg.MaxAttempts,
		Log:          log,
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		opts.Persister = client.NewRedisPersister(rdb, client.DefaultPersistKey, 0)
	}

	ctx := context.Background()
	m := client.New(api, opts)
	m.Start(ctx)
	state, waitErr := m.Wait(ctx)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "status":
		return printJSON(stdout, map[string]string{"state": state.String(), "api": cfg.APIURL})

	case "list":
		if _, _, err := m.Properties(ctx); err != nil {
			return err
		}
		c := client.Criteria{Type: *propType, City: *city, MinBedrooms: *bedrooms}
		if *minPrice >= 0 {
			c.MinPrice = minPrice
		}
		if *maxPrice >= 0 {
			c.MaxPrice = maxPrice
		}
		props := m.Filter(c)
		_, src := m.Snapshot()
		if state == client.StateOnline {
			src = client.SourceBackend
		}
		return printJSON(stdout, map[string]any{"source": src, "total": len(props), "properties": props})

	case "get":
		if len(rest) != 1 {
			return errors.New("get needs an identifier")
		}
		p, src, err := m.Get(ctx, rest[0])
		if err != nil {
			return err
		}
		return printJSON(stdout, map[string]any{"source": src, "property": p})

	case "search":
		if len(rest) != 1 {
			return errors.New("search needs a term")
		}
		props, src, err := m.Search(ctx, rest[0])
		if err != nil {
			return err
		}
		return printJSON(stdout, map[string]any{"source": src, "total": len(props), "properties": props})
	}

	// Writes need the live backend and an admin token.
	if waitErr != nil {
		return waitErr
	}
	if cfg.Token == "" {
		if cfg.Password == "" {
			return errors.New("set LISTINGS_TOKEN or ADMIN_PASSWORD for write commands")
		}
		if err := api.Login(ctx, cfg.Username, cfg.Password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	switch cmd {
	case "create":
		fields, err := readFields(rest, stdin)
		if err != nil {
			return err
		}
		p, ignored, err := m.Create(ctx, fields)
		if err != nil {
			return err
		}
		return printJSON(stdout, map[string]any{"property": p, "ignored_fields": ignored})

	case "update":
		if len(rest) < 1 {
			return errors.New("update needs an id")
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		fields, err := readFields(rest[1:], stdin)
		if err != nil {
			return err
		}
		p, ignored, err := m.Update(ctx, id, fields)
		if err != nil {
			return err
		}
		return printJSON(stdout, map[string]any{"property": p, "ignored_fields": ignored})

	case "delete":
		if len(rest) != 1 {
			return errors.New("delete needs an id")
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		if err := m.Delete(ctx, id); err != nil {
			return err
		}
		log.WithField("id", id).Info("Property deleted")
		return printJSON(stdout, map[string]any{"deleted": id})
	}

	fs.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}

// readFields decodes a JSON object from the named file, or stdin.
func readFields(args []string, stdin io.Reader) (map[string]any, error) {
	r := stdin
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	fields := map[string]any{}
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

