package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/index"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/mailbox"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/parse"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/search"
)

// NoAttachmentMessage answers an email that carried no schedule.
const NoAttachmentMessage = "Email received, no valid attachment found"

func BoardHandler(opts Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := opts.Now()
		deps, err := search.Upcoming(c.UserContext(), opts.DB, search.Options{
			Now:     now,
			Filter:  c.Query("q"),
			Limit:   opts.BoardLimit,
			Palette: &opts.Palette,
		})
		if err != nil {
			opts.Logger.Error().Err(err).Msg("load board")
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading timetable")
		}

		page := Board(BoardData{Departures: deps, Now: now, Filter: c.Query("q")})
		handler := adaptor.HTTPHandler(templ.Handler(page))
		return handler(c)
	}
}

// UploadHandler ingests a raw RFC 822 email posted as the request body and
// answers with a one-line status.
func UploadHandler(opts Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if opts.Pipeline == nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString("ingestion disabled")
		}
		// fiber reuses the body buffer once the handler returns
		raw := append([]byte(nil), c.Body()...)
		if len(raw) == 0 {
			return c.Status(fiber.StatusBadRequest).SendString("empty request body")
		}

		stats, err := opts.Pipeline.IngestEmail(c.UserContext(), raw)
		switch {
		case errors.Is(err, mailbox.ErrNoAttachment):
			return c.SendString(NoAttachmentMessage)
		case errors.Is(err, parse.ErrDateToken):
			return c.Status(fiber.StatusUnprocessableEntity).SendString(err.Error())
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).SendString("ingest failed: " + err.Error())
		}
		return c.SendString(stats.Message())
	}
}

type departureJSON struct {
	DepartureTime time.Time `json:"departure_time"`
	When          string    `json:"when"`
	Label         string    `json:"label"`
	Urgency       string    `json:"urgency"`
	UrgencyColor  string    `json:"urgency_color"`
	Vehicle       string    `json:"vehicle"`
	From          string    `json:"from"`
	LocationColor string    `json:"location_color"`
	Group         string    `json:"group"`
	Destination   string    `json:"destination"`
	Comments      string    `json:"comments"`
}

// DeparturesHandler serves upcoming departures as JSON. ?q= filters and
// ?limit= caps the list.
func DeparturesHandler(opts Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := 0
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a non-negative integer"})
			}
			limit = n
		}

		deps, err := search.Upcoming(c.UserContext(), opts.DB, search.Options{
			Now:     opts.Now(),
			Filter:  c.Query("q"),
			Limit:   limit,
			Palette: &opts.Palette,
		})
		if err != nil {
			opts.Logger.Error().Err(err).Msg("load departures")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load departures"})
		}

		out := make([]departureJSON, 0, len(deps))
		for _, d := range deps {
			out = append(out, departureJSON{
				DepartureTime: d.DepartureTime,
				When:          d.When,
				Label:         d.Label,
				Urgency:       d.Urgency.String(),
				UrgencyColor:  d.Urgency.CSS(),
				Vehicle:       d.Vehicle,
				From:          d.Location,
				LocationColor: d.LocationColor,
				Group:         d.TargetGroup,
				Destination:   d.Destination,
				Comments:      d.Comments,
			})
		}
		return c.JSON(out)
	}
}

func HealthHandler(db *index.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := db.Raw().PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString("store unavailable")
		}
		return c.SendString("ok")
	}
}
