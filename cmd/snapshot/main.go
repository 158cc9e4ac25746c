// Command snapshot manages the SQLite form of the PM2.5 snapshot.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"airwatch-server/internal/app"
	"airwatch-server/internal/config"
	"airwatch-server/internal/db"
	"airwatch-server/internal/logging"
	"airwatch-server/internal/modules/airquality/loader"
	"airwatch-server/internal/modules/airquality/repository"
)

const usage = `usage: %s <command>
  migrate         apply pending migrations and sync the station catalogue
  import <file>   replace the stored snapshot with a .csv or .xlsx file
  stats           print the number of stored readings
`

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg, version, "snapshot"))

	if err := run(cfg, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(cfg config.Config, args []string) error {
	conn, err := app.OpenSnapshot(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	repo := repository.NewRepository(conn)

	switch args[0] {
	case "migrate":
		fmt.Println("migrations applied")
		return nil
	case "import":
		if len(args) < 2 {
			return errors.New("missing file argument")
		}
		data, err := loader.Load(args[1], app.LoaderOptions(cfg))
		if err != nil {
			return err
		}
		if err := repo.ReplaceReadings(data.Readings()); err != nil {
			return err
		}
		n, err := repo.GetReadingsCount()
		if err != nil {
			return err
		}
		fmt.Printf("imported %d readings from %s\n", n, args[1])
		return nil
	case "stats":
		n, err := repo.GetReadingsCount()
		if err != nil {
			return err
		}
		stations, err := repo.GetStations()
		if err != nil {
			return err
		}
		fmt.Printf("%d readings across %d stations\n", n, len(stations))
		return nil
	default:
		return errors.New("unknown command")
	}
}
