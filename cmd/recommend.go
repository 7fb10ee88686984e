package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/desertthunder/spotme/internal/formatter"
	"github.com/desertthunder/spotme/internal/models"
	"github.com/desertthunder/spotme/internal/repositories"
	"github.com/desertthunder/spotme/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConnectUnlessLast only opens the store when --last skips the network.
func (r *Runner) ConnectUnlessLast(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("last") {
		return r.OpenStore(ctx, cmd)
	}
	return r.Connect(ctx, cmd)
}

// Recommend fetches recommendations (logging in when needed) and renders them.
//
// A member who is not allowlisted gets the registration call to action instead of an error.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")

	var result *models.RecommendationResult
	if cmd.Bool("last") {
		rec, err := r.historyRepo().Latest(ctx)
		if err != nil {
			return err
		}
		stored := rec.Result()
		result = &stored
	} else {
		if err := r.ensureToken(ctx, cmd); err != nil {
			return err
		}

		var err error
		result, err = r.controller.Generate(ctx)
		if errors.Is(err, shared.ErrNotAllowlisted) {
			return formatter.RenderNotAllowlisted(r.output, format, r.config.Recommendations.RegistrationEmail)
		}
		if err != nil {
			return err
		}
	}

	attribute := formatter.PickArtist(rand.IntN)

	if dir := cmd.String("output"); dir != "" {
		export, err := formatter.WriteMarkdownExport(result, dir, attribute, r.logger)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported to %s\n", strings.Join(export.Files, ", "))
	}

	return formatter.Render(r.output, format, result, attribute)
}

func (r *Runner) ensureToken(ctx context.Context, cmd *cli.Command) error {
	if token := cmd.String("token"); token != "" {
		return r.controller.Session().UseToken(token)
	}
	if r.controller.Snapshot().Authenticated {
		return nil
	}
	if err := r.login(ctx, cmd.Bool("no-browser")); err != nil {
		return err
	}
	if !r.controller.Snapshot().Authenticated {
		return fmt.Errorf("%w: login did not complete", shared.ErrNotAuthenticated)
	}
	return nil
}

// historyRepo returns the controller's repository, or one over the opened store.
func (r *Runner) historyRepo() *repositories.RecommendationRepository {
	if r.history == nil {
		r.history = repositories.NewRecommendationRepository(r.db)
	}
	return r.history
}

// historyEntry is one row of `spotme history --json`.
type historyEntry struct {
	ID              string    `json:"id"`
	Sequence        int       `json:"sequence"`
	CreatedAt       time.Time `json:"createdAt"`
	Recommendations []string  `json:"recommendations"`
	Genres          []string  `json:"genres"`
}

// History lists stored recommendation results, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	recs, err := r.historyRepo().List(map[string]any{"limit": cmd.Int("limit")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		entries := make([]historyEntry, 0, len(recs))
		for _, rec := range recs {
			entries = append(entries, historyEntry{
				ID:              rec.ID(),
				Sequence:        rec.Sequence(),
				CreatedAt:       rec.CreatedAt(),
				Recommendations: rec.Result().Recommendations,
				Genres:          rec.Result().Genres.Keys(),
			})
		}
		return r.writeJSON(entries, true)
	}

	if len(recs) == 0 {
		return r.writePlain("No stored recommendations. Run 'spotme recommend' first.\n")
	}

	for _, rec := range recs {
		result := rec.Result()
		first := ""
		if len(result.Recommendations) > 0 {
			first = result.Recommendations[0]
		}
		if err := r.writePlain("#%d  %s  %d genres  %s\n",
			rec.Sequence(), rec.CreatedAt().Local().Format(time.DateTime), result.Genres.Len(), first); err != nil {
			return err
		}
	}
	return nil
}
