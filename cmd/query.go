package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/OK-LG/berlin-open-data/internal/tools"
)

// newPointCmd builds a command that runs a coordinate tool for --lat/--lon.
func newPointCmd(use, short, tool string) *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, tool, map[string]float64{"lat": lat, "lon": lon})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude (WGS84)")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude (WGS84)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

// newAddressCmd builds a command that runs an address tool.
func newAddressCmd(use, short, tool string) *cobra.Command {
	var street, number, postalCode string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, tool, map[string]string{
				"street":       street,
				"house_number": number,
				"postal_code":  postalCode,
			})
		},
	}
	cmd.Flags().StringVar(&street, "street", "", "street name, e.g. \"Unter den Linden\"")
	cmd.Flags().StringVar(&number, "number", "", "house number, e.g. \"77\" or \"12a\"")
	cmd.Flags().StringVar(&postalCode, "postal-code", "", "optional postal code, e.g. \"10117\"")
	_ = cmd.MarkFlagRequired("street")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

// runTool calls the named tool and prints its result envelope. A failed
// envelope is still printed, then reported as a command error.
func runTool(cmd *cobra.Command, tool string, args any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return eris.Wrap(err, "encode arguments")
	}

	env := newToolEnv(cfg)
	res, err := env.Registry.Call(cmd.Context(), tool, raw)
	if err != nil {
		return err
	}
	if err := render(cmd.OutOrStdout(), outputFormat, res); err != nil {
		return err
	}
	if !res.Success {
		return eris.Errorf("%s failed: %s", tool, res.Error.Code)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(
		newAddressCmd("geocode", "Geocode a Berlin address", tools.GeocodeAddress),
		newPointCmd("parcel", "Cadastral parcel (Flurstück) at a location", tools.GetParcelInfo),
		newPointCmd("buildings", "Building footprints at a location", tools.GetBuildingFootprints),
		newPointCmd("landuse", "Land use plan (FNP) designation at a location", tools.GetLandUsePlan),
		newPointCmd("plans", "Development plans (B-Pläne) at a location", tools.GetDevelopmentPlans),
		newPointCmd("areas", "Redevelopment areas (Sanierungsgebiete) at a location", tools.GetRedevelopmentAreas),
		newPointCmd("landvalue", "Bodenrichtwert (land value) history at a location", tools.GetBodenrichtwert),
		newAddressCmd("lookup", "Full property report for an address", tools.LookupProperty),
	)
}
