package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

var (
	feedLat      float64
	feedLng      float64
	feedPostal   string
	feedRadius   float64
	feedCategory string
	feedSearch   string
	feedLimit    int
	feedOffset   int
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Browse the neighborhood feed",
	Long: `Browse the neighborhood feed. Provide a location with --lat/--lng or
--postal-code to get distance-sorted results; without one the feed falls
back to newest-first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getFeed(cmd)
	},
}

func init() {
	feedCmd.Flags().Float64Var(&feedLat, "lat", 0, "Viewer latitude")
	feedCmd.Flags().Float64Var(&feedLng, "lng", 0, "Viewer longitude")
	feedCmd.Flags().StringVar(&feedPostal, "postal-code", "", "Viewer postal code (alternative to --lat/--lng)")
	feedCmd.Flags().Float64Var(&feedRadius, "radius", 0, "Search radius in km (default 5, max 20)")
	feedCmd.Flags().StringVar(&feedCategory, "category", "all", "Category filter: request, offer, exchange, sale or all")
	feedCmd.Flags().StringVar(&feedSearch, "search", "", "Text search over titles and descriptions")
	feedCmd.Flags().IntVar(&feedLimit, "limit", 20, "Page size")
	feedCmd.Flags().IntVar(&feedOffset, "offset", 0, "Page offset")
}

func getFeed(cmd *cobra.Command) error {
	q := url.Values{}
	q.Set("category", feedCategory)
	q.Set("limit", fmt.Sprintf("%d", feedLimit))
	q.Set("offset", fmt.Sprintf("%d", feedOffset))
	if feedSearch != "" {
		q.Set("search", feedSearch)
	}
	if feedRadius > 0 {
		q.Set("radius_km", fmt.Sprintf("%g", feedRadius))
	}
	switch {
	case cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng"):
		q.Set("method", "gps")
		q.Set("lat", fmt.Sprintf("%g", feedLat))
		q.Set("lng", fmt.Sprintf("%g", feedLng))
	case feedPostal != "":
		q.Set("method", "postal")
		q.Set("postal_code", feedPostal)
	}

	resp, err := http.Get(apiURL + "/api/v1/feed?" + q.Encode())
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var parsed struct {
		Posts []struct {
			ID         string   `json:"id"`
			Title      string   `json:"title"`
			Category   string   `json:"category"`
			DistanceKm *float64 `json:"distance_km"`
			User       struct {
				Name string `json:"name"`
			} `json:"user"`
		} `json:"posts"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(parsed.Posts) == 0 {
		fmt.Println("No posts found.")
		return nil
	}

	w := os.Stdout
	for _, p := range parsed.Posts {
		dist := ""
		if p.DistanceKm != nil {
			dist = fmt.Sprintf("  [%.1fkm]", *p.DistanceKm)
		}
		fmt.Fprintf(w, "%s  (%s)%s\n    %s  by %s\n", p.Title, p.Category, dist, p.ID, p.User.Name)
	}
	fmt.Fprintf(w, "\n%d of %d posts\n", len(parsed.Posts), parsed.Meta.Total)
	return nil
}
