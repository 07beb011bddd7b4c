package reports

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reports"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Service is the report workflow the routes call into
type Service interface {
	Classify(ctx context.Context, req reports.ClassifyRequest) (*models.MatchResult, error)
	SubmitReport(ctx context.Context, req reports.ReportRequest) (*reports.SubmitOutcome, error)
	CheckIn(ctx context.Context, req reports.CheckInRequest) (*reports.CheckInOutcome, error)
	Search(ctx context.Context, req reports.SearchRequest) ([]models.Record, error)
	Stats(ctx context.Context, scopeID string) (reports.Stats, error)
}

// MatchView is a match result with the matched record masked
type MatchView struct {
	Tier       models.MatchTier    `json:"tier"`
	Action     models.MatchAction  `json:"action"`
	Confidence float64             `json:"confidence"`
	Matched    models.PublicRecord `json:"matched"`
}

type ClassifyResponse struct {
	Match *MatchView `json:"match"`
}

type SubmitResponse struct {
	Status      reports.SubmitStatus `json:"status"`
	Record      *models.PublicRecord `json:"record,omitempty"`
	Match       *MatchView           `json:"match,omitempty"`
	AlreadySafe bool                 `json:"already_safe"`
}

type CheckInResponse struct {
	Created bool                `json:"created"`
	Record  models.PublicRecord `json:"record"`
}

type SearchResponse struct {
	Results []models.PublicRecord `json:"results"`
	Count   int                   `json:"count"`
}

// Register registers report routes on a group mounted at /api/v1/events/:scope_id.
// Handlers resolve the Service from the request's dependency container.
func Register(g *echo.Group) {
	g.POST("/reports", SubmitReport)
	g.POST("/reports/classify", Classify)
	g.GET("/reports/search", Search)
	g.POST("/checkins", CheckIn)
	g.GET("/stats", Stats)
}

func resolveService(c echo.Context) (context.Context, Service, error) {
	ctx, service, err := ectoinject.GetContext[Service](c.Request().Context())
	if err != nil || service == nil {
		return ctx, nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	return ctx, service, nil
}

// SubmitReport stores a missing person report unless the person is already on file
func SubmitReport(c echo.Context) error {
	req, err := utils.BindRequest[reports.ReportRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := resolveService(c)
	if err != nil {
		return err
	}

	outcome, err := service.SubmitReport(ctx, req)
	if err != nil {
		return toHTTPError(err)
	}

	resp := SubmitResponse{
		Status:      outcome.Status,
		Match:       toMatchView(outcome.Match),
		AlreadySafe: outcome.AlreadySafe,
	}

	switch outcome.Status {
	case reports.SubmitDuplicate:
		return httperror.NewHTTPError(http.StatusConflict, "this person has already been reported").
			AddMetaValue("match", resp.Match).
			AddMetaValue("already_safe", outcome.AlreadySafe)
	case reports.SubmitCreated, reports.SubmitCreatedWithWarning:
		public := outcome.Record.ToPublic()
		resp.Record = &public
		return c.JSON(http.StatusCreated, resp)
	default:
		return c.JSON(http.StatusOK, resp)
	}
}

// Classify reports how a candidate relates to the scope without storing it
func Classify(c echo.Context) error {
	req, err := utils.BindRequest[reports.ClassifyRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := resolveService(c)
	if err != nil {
		return err
	}

	match, err := service.Classify(ctx, req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, ClassifyResponse{Match: toMatchView(match)})
}

// CheckIn marks a person safe
func CheckIn(c echo.Context) error {
	req, err := utils.BindRequest[reports.CheckInRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := resolveService(c)
	if err != nil {
		return err
	}

	outcome, err := service.CheckIn(ctx, req)
	if err != nil {
		return toHTTPError(err)
	}

	status := http.StatusOK
	if outcome.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, CheckInResponse{Created: outcome.Created, Record: outcome.Record.ToPublic()})
}

// Search looks up masked records by name, location or reference
func Search(c echo.Context) error {
	req, err := utils.BindRequest[reports.SearchRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := resolveService(c)
	if err != nil {
		return err
	}

	records, err := service.Search(ctx, req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, SearchResponse{
		Results: models.ToPublicRecords(records),
		Count:   len(records),
	})
}

// Stats returns missing and safe counts for the scope
func Stats(c echo.Context) error {
	ctx, service, err := resolveService(c)
	if err != nil {
		return err
	}

	stats, err := service.Stats(ctx, c.Param("scope_id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func toMatchView(match *models.MatchResult) *MatchView {
	if match == nil {
		return nil
	}
	return &MatchView{
		Tier:       match.Tier,
		Action:     match.Action,
		Confidence: match.Confidence,
		Matched:    match.MatchedRecord.ToPublic(),
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, reports.ErrInvalidInput):
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, reports.ErrLockTimeout), errors.Is(err, reports.ErrStoreUnavailable):
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "service temporarily unavailable, please retry")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "request timed out, please retry")
	default:
		return err
	}
}
