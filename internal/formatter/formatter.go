// package formatter renders annotated recommendations as plain text, Markdown or JSON
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotme/internal/annotate"
	"github.com/desertthunder/spotme/internal/models"
	"github.com/desertthunder/spotme/internal/shared"
)

// Format names accepted by [Render].
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

const (
	registrationSubject = "Spot Me Registration Request"
	registrationBody    = "[REPLACE WITH YOUR FIRST AND LAST NAME]\r\n[REPLACE WITH YOUR SPOTIFY EMAIL]"
)

// Attribution chooses the artist credited for a genre. ok is false when the genre has no artists.
type Attribution func(genre string, meta models.GenreMetadata) (artist models.ArtistRef, ok bool)

// FirstArtist credits the first listed artist.
func FirstArtist(_ string, meta models.GenreMetadata) (models.ArtistRef, bool) {
	if len(meta.Artists) == 0 {
		return models.ArtistRef{}, false
	}
	return meta.Artists[0], true
}

// PickArtist credits an artist chosen by pick, once per genre.
func PickArtist(pick func(n int) int) Attribution {
	picked := map[string]models.ArtistRef{}
	return func(genre string, meta models.GenreMetadata) (models.ArtistRef, bool) {
		if a, ok := picked[genre]; ok {
			return a, true
		}
		if len(meta.Artists) == 0 {
			return models.ArtistRef{}, false
		}
		a := meta.Artists[pick(len(meta.Artists))]
		picked[genre] = a
		return a, true
	}
}

// credit is one "because you like" line.
type credit struct {
	genre  string
	artist models.ArtistRef
}

// credits collects one credit per distinct genre mentioned across all recommendations.
func credits(result *models.RecommendationResult, attribute Attribution) []credit {
	if attribute == nil {
		attribute = FirstArtist
	}

	seen := map[string]bool{}
	var out []credit
	for _, text := range result.Recommendations {
		for _, genre := range annotate.Mentions(annotate.Annotate(text, result.Genres)) {
			if seen[genre] {
				continue
			}
			seen[genre] = true

			meta, _ := result.Genres.Get(genre)
			if artist, ok := attribute(genre, meta); ok {
				out = append(out, credit{genre: genre, artist: artist})
			}
		}
	}
	return out
}

func mark(segs []annotate.Segment, left, right string) string {
	var b strings.Builder
	for _, seg := range segs {
		if m, ok := seg.(annotate.GenreMention); ok {
			b.WriteString(left + m.Genre + right)
			continue
		}
		b.WriteString(seg.Literal())
	}
	return b.String()
}

// ToText renders recommendations with mentions in brackets.
func ToText(result *models.RecommendationResult, attribute Attribution) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no recommendations", shared.ErrMissingArgument)
	}
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Recommendations: %d\n\n", len(result.Recommendations)))
	for i, text := range result.Recommendations {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, mark(annotate.Annotate(text, result.Genres), "[", "]")))
	}

	if cs := credits(result, attribute); len(cs) > 0 {
		buf.WriteString("\n")
		for _, c := range cs {
			buf.WriteString(fmt.Sprintf("[%s] Because you like %s", c.genre, c.artist.Name))
			if c.artist.ProfileURL != "" {
				buf.WriteString(fmt.Sprintf(" <%s>", c.artist.ProfileURL))
			}
			buf.WriteString("\n")
		}
	}

	if result.FlierImageURL != "" {
		buf.WriteString(fmt.Sprintf("\nFlier: %s\n", result.FlierImageURL))
	}

	return buf.Bytes(), nil
}

// ToMarkdown renders recommendations with mentions in bold.
//
// imageFilename, when set, replaces the flier URL in the image link.
func ToMarkdown(result *models.RecommendationResult, attribute Attribution, imageFilename string) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no recommendations", shared.ErrMissingArgument)
	}
	var buf bytes.Buffer

	buf.WriteString("# Recommendations\n\n")

	flier := result.FlierImageURL
	if imageFilename != "" {
		flier = imageFilename
	}
	if flier != "" {
		buf.WriteString(fmt.Sprintf("![Flier](%s)\n\n", flier))
	}

	for i, text := range result.Recommendations {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, mark(annotate.Annotate(text, result.Genres), "**", "**")))
	}

	if cs := credits(result, attribute); len(cs) > 0 {
		buf.WriteString("\n## Genres\n\n")
		for _, c := range cs {
			name := c.artist.Name
			if c.artist.ProfileURL != "" {
				name = fmt.Sprintf("[%s](%s)", c.artist.Name, c.artist.ProfileURL)
			}
			buf.WriteString(fmt.Sprintf("- **%s**: Because you like %s\n", c.genre, name))
		}
	}

	return buf.Bytes(), nil
}

// ToJSON encodes the result in the endpoint's wire shape.
func ToJSON(result *models.RecommendationResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no recommendations", shared.ErrMissingArgument)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode recommendations: %w", err)
	}
	return append(data, '\n'), nil
}

// Render writes result to w in format.
func Render(w io.Writer, format string, result *models.RecommendationResult, attribute Attribution) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatText, "":
		data, err = ToText(result, attribute)
	case FormatMarkdown, "md":
		data, err = ToMarkdown(result, attribute, "")
	case FormatJSON:
		data, err = ToJSON(result)
	default:
		return fmt.Errorf("%w: format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// RegistrationLink returns the mailto link used to request allowlist access.
func RegistrationLink(email string) string {
	q := url.Values{}
	q.Set("subject", registrationSubject)
	q.Set("body", registrationBody)
	return "mailto:" + email + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}

// RenderNotAllowlisted writes the call to action shown to members who are not allowlisted.
func RenderNotAllowlisted(w io.Writer, format, email string) error {
	link := RegistrationLink(email)

	var msg string
	switch format {
	case FormatMarkdown, "md":
		msg = fmt.Sprintf("Spot Me is invite-only. [Request access](%s) to generate recommendations.\n", link)
	case FormatJSON:
		data, err := json.Marshal(map[string]any{"notAllowlisted": true, "registration": link})
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		msg = string(data) + "\n"
	default:
		msg = fmt.Sprintf("Spot Me is invite-only. Request access by email:\n  %s\n", link)
	}

	if _, err := io.WriteString(w, msg); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	FlierImage string
}

// WriteMarkdownExport writes {dir}/README.md and, when the flier downloads, {dir}/flier.jpg.
//
// A failed download is logged as a warning and falls back to linking the remote flier.
func WriteMarkdownExport(result *models.RecommendationResult, outputDir string, attribute Attribution, logger *log.Logger) (*MarkdownExportResult, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no recommendations", shared.ErrMissingArgument)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if outputDir == "" {
		outputDir = "recommendations"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	export := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var flierFilename string
	if result.FlierImageURL != "" {
		if data, err := DownloadImage(result.FlierImageURL); err != nil {
			logger.Warn("failed to download flier", "url", result.FlierImageURL, "error", err)
		} else {
			path := filepath.Join(outputDir, "flier.jpg")
			if err := os.WriteFile(path, data, 0644); err != nil {
				logger.Warn("failed to save flier", "path", path, "error", err)
			} else {
				flierFilename = "flier.jpg"
				export.FlierImage = path
				export.Files = append(export.Files, path)
			}
		}
	}

	md, err := ToMarkdown(result, attribute, flierFilename)
	if err != nil {
		return nil, err
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, md, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	export.Files = append(export.Files, mdFile)

	return export, nil
}
