package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-forecast/internal/report"
	"github.com/i474232898/weather-forecast/internal/scheduler"
	"github.com/i474232898/weather-forecast/internal/weather"
)

var errNoWatchCities = errors.New("no cities to watch: pass them as arguments or set watch.cities")

func watchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [city ...]",
		Short: "Refresh forecasts for several cities on an interval",
		Long: "Refresh forecasts for several cities on an interval. Each argument is one city;\n" +
			"quote names that contain spaces or commas. Without arguments watch.cities is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}

			cities := args
			if len(cities) == 0 {
				cities = a.cfg.Watch.Cities
			}
			if len(cities) == 0 {
				return errNoWatchCities
			}

			out := cmd.OutOrStdout()
			units := report.UnitsFor(a.cfg.OpenWeather.Units)
			var mu sync.Mutex
			handle := func(city string, result *weather.ForecastResult, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n\n", city, err)
					return
				}
				if a.jsonOutput {
					_ = writeJSON(out, result)
					return
				}
				_ = report.WriteForecast(out, result, units)
				fmt.Fprintln(out)
			}

			sched := scheduler.New(cities, a.cfg.Watch.Interval, svc, handle, a.logger)
			if err := sched.Start(cmd.Context()); err != nil {
				return err
			}
			defer sched.Stop()

			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().Duration("interval", 0, "refresh interval (default 15m)")
	if err := a.v.BindPFlag("watch.interval", cmd.Flags().Lookup("interval")); err != nil {
		panic(err)
	}

	return cmd
}
