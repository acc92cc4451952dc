// Package tools exposes the property queries as named operations with JSON
// arguments and a uniform success/error envelope.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/OK-LG/berlin-open-data/internal/coords"
	"github.com/OK-LG/berlin-open-data/internal/lookup"
	"github.com/OK-LG/berlin-open-data/internal/opendata"
	"github.com/OK-LG/berlin-open-data/pkg/wfs"
)

var (
	// ErrUnknownTool is returned by Call for names not in the registry.
	ErrUnknownTool = eris.New("unknown tool")
	// ErrInvalidArguments is returned by Call when the arguments cannot be decoded.
	ErrInvalidArguments = eris.New("invalid arguments")
)

// Tool names.
const (
	GeocodeAddress        = "geocode_address"
	GetParcelInfo         = "get_parcel_info"
	GetBuildingFootprints = "get_building_footprints"
	GetLandUsePlan        = "get_land_use_plan"
	GetDevelopmentPlans   = "get_development_plans"
	GetRedevelopmentAreas = "get_redevelopment_areas"
	GetBodenrichtwert     = "get_bodenrichtwert"
	LookupProperty        = "lookup_property"
)

// InputKind tells which argument shape a tool takes.
type InputKind string

const (
	InputAddress     InputKind = "address"
	InputCoordinates InputKind = "coordinates"
)

// Result is the envelope every tool returns.
type Result struct {
	Success bool       `json:"success" yaml:"success"`
	Data    any        `json:"data,omitempty" yaml:"data,omitempty"`
	Error   *wfs.Error `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail wraps err in an error envelope.
func Fail(err error) Result {
	return Result{Success: false, Error: wfs.AsError(err)}
}

func outcome[T any](v T, err error) Result {
	if err != nil {
		return Fail(err)
	}
	return OK(v)
}

// Tool describes one operation.
type Tool struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Input       InputKind      `json:"input" yaml:"input"`
	InputSchema map[string]any `json:"inputSchema" yaml:"inputSchema"`

	call func(ctx context.Context, args json.RawMessage) (Result, error)
}

// Registry holds the available tools in a fixed order.
type Registry struct {
	tools []Tool
	index map[string]int
}

// NewRegistry builds the tool set over svc and orch.
func NewRegistry(svc *opendata.Service, orch *lookup.Orchestrator) *Registry {
	r := &Registry{index: map[string]int{}}

	r.add(addressTool(GeocodeAddress,
		"Geocode a Berlin address to get coordinates. Returns the normalized address with WGS84 (lat/lon) and UTM (EPSG:25833) coordinates.",
		svc.GeocodeAddress))
	r.add(pointTool(GetParcelInfo,
		"Get cadastral parcel (Flurstück) information for a location. Returns the parcel ID, Gemarkung, area, and boundary polygon.",
		svc.ParcelInfo))
	r.add(pointTool(GetBuildingFootprints,
		"Get building footprints (ALKIS Gebäude) at a location. Returns up to 50 buildings with their outline and attributes.",
		svc.BuildingFootprints))
	r.add(pointTool(GetLandUsePlan,
		"Get the land use plan (Flächennutzungsplan/FNP) designation for a location. Returns the FNP code (e.g., W, GE, M) with full name.",
		svc.LandUsePlan))
	r.add(pointTool(GetDevelopmentPlans,
		"Get development plans (Bebauungspläne/B-Pläne) for a location. Returns an array of B-Plans with their status (in_preparation, legally_binding, or lifted).",
		svc.DevelopmentPlans))
	r.add(pointTool(GetRedevelopmentAreas,
		"Check if a location is within a redevelopment area (Sanierungsgebiet). Returns array of areas with type (comprehensive, simplified, or lifted).",
		svc.RedevelopmentAreas))
	r.add(pointTool(GetBodenrichtwert,
		"Get the Bodenrichtwert (official land value) from BORIS Berlin for a location. Returns the three most recent yearly datasets including raw land value (brw) in €/m², effective value with GFZ (brw_with_gfz = brw × floor area ratio), land use type, and year-over-year trend. When the latest year has no entry, current holds the prior year.",
		svc.LandValue))
	r.add(addressTool(LookupProperty,
		"Comprehensive property lookup by address. Geocodes the address then retrieves parcel data, buildings, land use plan, Bodenrichtwert (land value), development plans, and redevelopment area status.",
		orch.Lookup))
	return r
}

func (r *Registry) add(t Tool) {
	r.index[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Call decodes args for the named tool and runs it. Query failures are
// reported inside the Result; the error is reserved for unknown tools and
// undecodable arguments.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	t, ok := r.Get(name)
	if !ok {
		return Result{}, eris.Wrapf(ErrUnknownTool, "%q", name)
	}
	return t.call(ctx, args)
}

type coordinateArgs struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func pointTool[T any](name, description string, fn func(context.Context, coords.WGS84) (T, error)) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Input:       InputCoordinates,
		InputSchema: coordinatesSchema,
		call: func(ctx context.Context, raw json.RawMessage) (Result, error) {
			var args coordinateArgs
			if err := decodeArgs(raw, &args); err != nil {
				return Result{}, err
			}
			if args.Lat == nil || args.Lon == nil {
				return Fail(wfs.NewError(wfs.CodeInvalidCoordinates, "lat and lon are required")), nil
			}
			return outcome(fn(ctx, coords.WGS84{Lat: *args.Lat, Lon: *args.Lon})), nil
		},
	}
}

func addressTool[T any](name, description string, fn func(context.Context, opendata.AddressInput) (T, error)) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Input:       InputAddress,
		InputSchema: addressSchema,
		call: func(ctx context.Context, raw json.RawMessage) (Result, error) {
			var args opendata.AddressInput
			if err := decodeArgs(raw, &args); err != nil {
				return Result{}, err
			}
			if strings.TrimSpace(args.Street) == "" || strings.TrimSpace(args.HouseNumber) == "" {
				return Result{}, eris.Wrap(ErrInvalidArguments, "street and house_number are required")
			}
			return outcome(fn(ctx, args)), nil
		},
	}
}

func decodeArgs(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return eris.Wrapf(ErrInvalidArguments, "decode: %v", err)
	}
	return nil
}

var addressSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"street":       map[string]any{"type": "string", "description": "Street name (e.g., 'Unter den Linden')"},
		"house_number": map[string]any{"type": "string", "description": "House number (e.g., '77')"},
		"postal_code":  map[string]any{"type": "string", "description": "Optional postal code to narrow down results (e.g., '10117')"},
	},
	"required": []string{"street", "house_number"},
}

var coordinatesSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"lat": map[string]any{"type": "number", "description": "Latitude (WGS84)"},
		"lon": map[string]any{"type": "number", "description": "Longitude (WGS84)"},
	},
	"required": []string{"lat", "lon"},
}
