package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"relocation/internal/env"
	"relocation/internal/logger"
	"relocation/internal/resolver"
	"relocation/pkg/geo"
	"relocation/pkg/graceful"
	"relocation/pkg/location"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [region | lat,lng]",
		Short: "Show job sites for a region or a position",
		Long: `Show job sites for a region or a position.

The location is a region code (sk), a country name (Slovakia) or a
"lat,lng" pair. --region or --lat/--lng can be used instead, and --place
looks up the coordinates of a city or address first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.Load()
			if err != nil {
				return err
			}
			sig, err := signalFromCmd(cmd, args)
			if err != nil {
				return err
			}
			if place, _ := cmd.Flags().GetString("place"); place != "" {
				if sig, err = geocode(cmd.Context(), cfg, place); err != nil {
					return err
				}
			}
			if u, _ := cmd.Flags().GetString("api-url"); u != "" {
				cfg.APIURL = u
			}
			if cmd.Flags().Changed("timeout") {
				cfg.APITimeout, _ = cmd.Flags().GetDuration("timeout")
			}
			if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
				cfg.Language = lang
			}
			if err := cfg.RequireAPI(); err != nil {
				return err
			}
			wait, _ := cmd.Flags().GetDuration("wait")

			ctx, cancel := graceful.Context(cmd.Context())
			defer cancel()

			p := newPrinter(cmd.OutOrStdout(), outputFormat(cmd))
			var mu sync.Mutex
			onRefresh := func(res resolver.Result) {
				mu.Lock()
				defer mu.Unlock()
				if err := p.result(res, true); err != nil {
					logger.GetLogger().Warnf("Printing refresh: %v", err)
				}
			}

			a, err := newApp(ctx, cmd, cfg, onRefresh)
			if err != nil {
				return err
			}
			defer a.close()

			res := a.resolver.Resolve(ctx, sig)
			mu.Lock()
			err = p.result(res, false)
			mu.Unlock()
			if err != nil {
				return err
			}

			waitCtx, cancelWait := context.WithTimeout(ctx, wait)
			defer cancelWait()
			if err := a.resolver.Wait(waitCtx); err != nil {
				logger.GetLogger().Debugf("Not waiting longer for background refresh: %v", err)
			}
			return nil
		},
	}

	cmd.Flags().String("region", "", "region code or country name")
	cmd.Flags().Float64("lat", 0, "latitude in degrees")
	cmd.Flags().Float64("lng", 0, "longitude in degrees")
	cmd.Flags().String("place", "", "city or address to geocode (uses $NOMINATIM_URL)")
	cmd.Flags().String("api-url", "", "job sites API base URL (default $JOBSITES_API_URL)")
	cmd.Flags().Duration("timeout", env.DefaultAPITimeout, "API request timeout, 0 for none")
	cmd.Flags().String("lang", "", "UI language sent to the API (default $JOBSITES_LANGUAGE)")
	cmd.Flags().Duration("wait", 5*time.Second, "how long to wait for a background refresh before exiting; a refresh still running then is dropped")
	return cmd
}

// signalFromCmd builds the lookup signal from the positional argument or
// the --region/--lat/--lng flags.
func signalFromCmd(cmd *cobra.Command, args []string) (location.Signal, error) {
	region, _ := cmd.Flags().GetString("region")
	hasPoint := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng")

	var sig location.Signal
	if place, _ := cmd.Flags().GetString("place"); place != "" {
		if len(args) > 0 || region != "" || hasPoint {
			return sig, errors.New("--place cannot be combined with another location")
		}
		return sig, nil
	}
	switch {
	case len(args) == 1 && (region != "" || hasPoint):
		return sig, errors.New("give the location either as an argument or with flags, not both")
	case len(args) == 1:
		return parseLocation(args[0])
	case region != "":
		sig = location.Region(regionCode(region))
		if hasPoint {
			lat, _ := cmd.Flags().GetFloat64("lat")
			lng, _ := cmd.Flags().GetFloat64("lng")
			sig.Coordinates = &location.Coordinates{Latitude: lat, Longitude: lng}
		}
	case hasPoint:
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
			return sig, errors.New("--lat and --lng must be given together")
		}
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		sig = location.Point(lat, lng)
	}
	if err := sig.Validate(); err != nil {
		return location.Signal{}, err
	}
	return sig, nil
}

func parseLocation(input string) (location.Signal, error) {
	if code, ok := geo.Lookup(input); ok {
		return location.Region(code), nil
	}
	sig, err := location.Parse(input)
	if err != nil {
		return location.Signal{}, fmt.Errorf("invalid location %q: %w", input, err)
	}
	return sig, nil
}

// regionCode maps a country name to its code and passes anything else
// through unchanged.
func regionCode(input string) string {
	if code, ok := geo.Lookup(input); ok {
		return code
	}
	return input
}

func geocode(ctx context.Context, cfg env.Config, place string) (location.Signal, error) {
	g := location.NewGeocoder(cfg.GeocoderURL, "jobsites-cli")
	defer g.Close()

	p, err := g.Search(ctx, place, cfg.Language)
	if err != nil {
		return location.Signal{}, err
	}
	logger.GetLogger().WithFields(logrus.Fields{
		"place": p.Name,
		"city":  p.City,
		"lat":   p.Latitude,
		"lng":   p.Longitude,
	}).Info("Geocoded place")
	return p.Signal(), nil
}
