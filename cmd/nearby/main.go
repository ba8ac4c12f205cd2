// Command nearby prints annotated recommendations and hotels around a coordinate.
//
//	nearby --lat 48.8584 --lon 2.2945 --prefs museums --radius 2
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"recotrip/internal/adapters/observability"
	"recotrip/internal/adapters/overpass"
	"recotrip/internal/adapters/recommend"
	"recotrip/internal/app"
	"recotrip/internal/domain"
	"recotrip/internal/shared"
)

// buildFunc wires the service; withRecs is false when only hotels are needed.
type buildFunc func(cfg shared.Config, withRecs bool) (*app.NearbyService, error)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if err := newRootCmd(cfg, buildService).Execute(); err != nil {
		os.Exit(1)
	}
}

func buildService(cfg shared.Config, withRecs bool) (*app.NearbyService, error) {
	var recs domain.RecommendationClient
	if withRecs {
		c, err := recommend.New(cfg.RecommendURL, cfg.RequestRPS)
		if err != nil {
			return nil, err
		}
		recs = c
	}
	// no cache: every run is a fresh lookup
	return app.NewNearbyService(recs, overpass.New(cfg.OverpassURL, overpass.Timeout), nil, 0), nil
}

func newRootCmd(cfg shared.Config, build buildFunc) *cobra.Command {
	var (
		lat, lon, radius float64
		prefs            string
		hotelsOnly       bool
	)
	cmd := &cobra.Command{
		Use:           "nearby",
		Short:         "Show recommended places and hotels around a coordinate",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			origin := domain.Coordinate{Latitude: lat, Longitude: lon}
			if !origin.Valid() {
				return fmt.Errorf("%w: coordinate out of range", domain.ErrInvalid)
			}
			svc, err := build(cfg, !hotelsOnly)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var out app.Exploration
			if hotelsOnly {
				out.Hotels, err = svc.Hotels(ctx, origin, radius)
			} else {
				out, err = svc.Explore(ctx, origin, prefs, radius)
			}
			if err != nil {
				var ne *domain.NetworkError
				if errors.As(err, &ne) {
					log.Error().Err(err).Int("status", ne.Status).Bool("timeout", ne.Timeout).Msg("lookup failed")
					return errors.New(ne.Message)
				}
				return err
			}
			return render(cmd.OutOrStdout(), out)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&lat, "lat", 0, "latitude of the origin")
	f.Float64Var(&lon, "lon", 0, "longitude of the origin")
	f.Float64Var(&radius, "radius", app.DefaultRadiusKm, "hotel search radius in km")
	f.StringVar(&prefs, "prefs", "", "free-text preferences passed to the recommender")
	f.BoolVar(&hotelsOnly, "hotels-only", false, "skip recommendations")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func render(w io.Writer, out app.Exploration) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(out.Places) > 0 {
		fmt.Fprintln(tw, "PLACE\tRATING\tKM\tETA\tMODE")
		for _, p := range out.Places {
			fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%d min\t%s\n", p.Name, p.Rating, p.DistanceKm, p.TravelMinutes, p.TransportMode)
		}
		fmt.Fprintln(tw)
	}
	fmt.Fprintln(tw, "HOTEL\tADDRESS\tKM\tMODE")
	for _, h := range out.Hotels {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\n", h.Name, h.Address, h.DistanceKm, h.TransportMode)
	}
	return tw.Flush()
}
