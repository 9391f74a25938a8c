package crawler

import (
	"context"
	"strings"

	"sjsage522/partsworker/helpers"
	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/pkg/errors"
)

const searchPath = "/auto-onderdelen-voorraad/zoeken/"

// Resolver turns a license plate into the site's vehicle reference
type Resolver struct {
	client *Client
	sel    Selectors
	log    *logger.Logger
}

// NewResolver creates a resolver on top of client
func NewResolver(client *Client, sel Selectors) *Resolver {
	return &Resolver{
		client: client,
		sel:    sel,
		log:    logger.ForCrawler(Provider),
	}
}

// Resolve looks the plate up with a single request. Dash and case variants of
// the same plate resolve to the same VehicleRef.
func (r *Resolver) Resolve(ctx context.Context, plate string) (VehicleRef, error) {
	normalized, err := NormalizePlate(plate)
	if err != nil {
		return VehicleRef{}, err
	}

	plateURL := r.siteURL("kenteken/" + strings.ToLower(normalized) + "/")
	page, err := r.client.Fetch(ctx, plateURL)
	if err != nil {
		if errors.IsNotFound(err) {
			return VehicleRef{}, errors.NewNotFound(Provider, "no vehicle found for plate "+normalized)
		}
		return VehicleRef{}, err
	}

	item := page.Doc.Find(r.sel.VehicleItem).First()
	if item.Length() == 0 {
		if page.Doc.Find(r.sel.LookupForm).Length() > 0 {
			return VehicleRef{}, errors.NewNotFound(Provider, "no vehicle found for plate "+normalized)
		}
		return VehicleRef{}, errors.NewUnexpectedFormat(Provider, "plate lookup page not recognized", nil)
	}

	modelType := strings.TrimSpace(item.AttrOr("data-type", ""))
	if modelType == "" {
		return VehicleRef{}, errors.NewUnexpectedFormat(Provider, "vehicle result without model type", nil)
	}

	ref := VehicleRef{
		Plate:       normalized,
		ModelType:   modelType,
		Description: helpers.CollapseSpace(item.Find(r.sel.VehicleName).First().Text()),
		URL:         r.siteURL("kenteken/" + strings.ToLower(normalized) + "/modeltype/" + modelType + "/"),
	}

	r.log.Info().
		Str("plate", ref.Plate).
		Str("modeltype", ref.ModelType).
		Str("vehicle", ref.Description).
		Msg("Vehicle resolved")

	return ref, nil
}

func (r *Resolver) siteURL(path string) string {
	return strings.TrimSuffix(r.client.BaseURL().String(), "/") + searchPath + path
}
