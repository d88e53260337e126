package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/planc/f1-data-sync/pkg/models"
	"github.com/planc/f1-data-sync/pkg/utils"
)

// Paths under the Ergast base URL, in fetch order.
var defaultEndpointPaths = []struct {
	name string
	path string
}{
	{"current_schedule", "/current.json"},
	{"last_results", "/current/last/results.json"},
	{"current_results", "/current/results.json?limit=100"},
	{"next_race", "/current/next.json"},
	{"driver_standings", "/current/driverStandings.json"},
	{"constructor_standings", "/current/constructorStandings.json"},
	{"drivers", "/current/drivers.json?limit=100"},
	{"constructors", "/current/constructors.json?limit=100"},
}

// DefaultEndpoints returns the standard endpoint table rooted at baseURL
func DefaultEndpoints(baseURL string) []models.Endpoint {
	base := strings.TrimRight(baseURL, "/")
	endpoints := make([]models.Endpoint, 0, len(defaultEndpointPaths))
	for _, p := range defaultEndpointPaths {
		endpoints = append(endpoints, models.Endpoint{
			Name: p.name,
			URL:  base + p.path,
		})
	}
	return endpoints
}

type endpointsFile struct {
	Endpoints []models.Endpoint `yaml:"endpoints"`
}

// LoadEndpointsFile reads an endpoint table from YAML. Entries without a name
// get one derived from their title.
func LoadEndpointsFile(path string) ([]models.Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoints file: %w", err)
	}

	var file endpointsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse endpoints file %s: %w", path, err)
	}

	for i := range file.Endpoints {
		if file.Endpoints[i].Name == "" && file.Endpoints[i].Title != "" {
			file.Endpoints[i].Name = utils.GenerateEndpointName(file.Endpoints[i].Title)
		}
	}

	return file.Endpoints, nil
}
