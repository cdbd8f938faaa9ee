package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/cornealfit/internal/topography"
	"github.com/chrissnell/cornealfit/internal/types"
	"gopkg.in/yaml.v3"
)

// JobSpec is one entry of a batch job file
type JobSpec struct {
	Name       string                     `yaml:"name"`
	Vendor     string                     `yaml:"vendor"`
	File       string                     `yaml:"file"`
	HeightFile string                     `yaml:"height_file,omitempty"`
	Indices    *types.KeratometricIndices `yaml:"indices,omitempty"`

	RadiusInterval []float64 `yaml:"radius_interval,omitempty"`
	Meridians      []float64 `yaml:"meridians,omitempty"`

	Sphere              float64 `yaml:"sphere"`
	Overcorrection      float64 `yaml:"overcorrection,omitempty"`
	Family              string  `yaml:"family"`
	FitLevel            int     `yaml:"fit_level,omitempty"`
	OpticalZoneDiameter float64 `yaml:"optical_zone_diameter"`
	OverallDiameter     float64 `yaml:"overall_diameter"`
	SideArcPosition     float64 `yaml:"side_arc_position,omitempty"`
	FourAxis            bool    `yaml:"four_axis,omitempty"`
	Special             bool    `yaml:"special,omitempty"`

	Profile  bool `yaml:"profile,omitempty"`
	Staining bool `yaml:"staining,omitempty"`
}

type jobFile struct {
	Jobs []JobSpec `yaml:"jobs"`
}

// LoadJobs reads a job file. Relative measurement paths are resolved against
// the job file's directory.
func LoadJobs(path string) ([]JobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading job file: %w", err)
	}
	specs, err := ParseJobs(data)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i := range specs {
		specs[i].File = resolve(dir, specs[i].File)
		specs[i].HeightFile = resolve(dir, specs[i].HeightFile)
	}
	return specs, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// ParseJobs parses and checks job file content
func ParseJobs(data []byte) ([]JobSpec, error) {
	var f jobFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing job file: %w", err)
	}
	if len(f.Jobs) == 0 {
		return nil, fmt.Errorf("job file defines no jobs")
	}

	for i, j := range f.Jobs {
		if j.Name == "" {
			f.Jobs[i].Name = fmt.Sprintf("job-%d", i+1)
		}
		if j.File == "" {
			return nil, fmt.Errorf("job [%s] has no measurement file", f.Jobs[i].Name)
		}
		if _, err := types.ParseVendor(j.Vendor); err != nil {
			return nil, fmt.Errorf("job [%s]: %w", f.Jobs[i].Name, err)
		}
		if n := len(j.RadiusInterval); n != 0 && n != 2 {
			return nil, fmt.Errorf("job [%s]: radius_interval needs 2 values, got %d", f.Jobs[i].Name, n)
		}
		if j.Staining && !j.FourAxis {
			return nil, fmt.Errorf("job [%s]: staining requires a four-axis fit", f.Jobs[i].Name)
		}
	}
	return f.Jobs, nil
}

// Request reads the job's measurement files and builds its fit request
func (j JobSpec) Request() (FitRequest, error) {
	vendor, err := types.ParseVendor(j.Vendor)
	if err != nil {
		return FitRequest{}, err
	}
	file, err := topography.ReadFile(vendor, j.File, j.HeightFile)
	if err != nil {
		return FitRequest{}, err
	}

	req := FitRequest{
		File:                file,
		MeridianAngles:      j.Meridians,
		Indices:             j.Indices,
		Sphere:              j.Sphere,
		Overcorrection:      j.Overcorrection,
		Family:              j.Family,
		FitLevel:            j.FitLevel,
		OpticalZoneDiameter: j.OpticalZoneDiameter,
		OverallDiameter:     j.OverallDiameter,
		SideArcPosition:     j.SideArcPosition,
		FourAxis:            j.FourAxis,
		Special:             j.Special,
	}
	if len(j.RadiusInterval) == 2 {
		req.RadiusInterval = [2]float64{j.RadiusInterval[0], j.RadiusInterval[1]}
	}
	return req, nil
}
