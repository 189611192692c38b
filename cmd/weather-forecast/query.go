package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-forecast/internal/geocode"
	"github.com/i474232898/weather-forecast/internal/report"
)

// cityArg joins arguments so unquoted input such as
// `forecast Moscow, Idaho, United States` reads as one city.
func cityArg(args []string) string {
	return strings.Join(args, " ")
}

func forecastCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "forecast <city>[, region][, country]",
		Short:   "Show current conditions and a daily forecast summary",
		Example: "  weather-forecast forecast Moscow, Idaho, United States",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}

			result, err := svc.GetWeather(cmd.Context(), cityArg(args))
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return report.WriteForecast(cmd.OutOrStdout(), result, report.UnitsFor(a.cfg.OpenWeather.Units))
		},
	}
}

func currentCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "current <city>[, region][, country]",
		Short: "Show current conditions only",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}

			city := cityArg(args)
			rec, err := svc.GetWeatherDetails(cmd.Context(), city)
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			return report.WriteCurrent(cmd.OutOrStdout(), strings.TrimSpace(city), rec, report.UnitsFor(a.cfg.OpenWeather.Units))
		},
	}
}

func normalizeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <city>[, region][, country]",
		Short: "Print the provider query for a location without contacting the provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := geocode.Resolve(cityArg(args))
			for _, u := range q.Unresolved {
				a.logger.Warn("location segment not resolved", "kind", u.Kind, "name", u.Name)
			}

			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"query":      q.String(),
					"city":       q.City,
					"region":     q.Region,
					"country":    q.Country,
					"unresolved": q.Unresolved,
				})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), q.String())
			return err
		},
	}
}

func suggestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <partial city name>",
		Short: "List matching places from GeoNames in a form the other commands accept",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suggester, err := a.suggester()
			if err != nil {
				return err
			}

			suggestions, err := suggester.Suggest(cmd.Context(), cityArg(args))
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), suggestions)
			}
			for _, s := range suggestions {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), s.DisplayName()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
