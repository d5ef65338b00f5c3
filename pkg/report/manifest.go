package report

import (
	"errors"
	"time"

	"github.com/Sumatoshi-tech/repohealth/pkg/cache"
	"github.com/Sumatoshi-tech/repohealth/pkg/persist"
	"github.com/Sumatoshi-tech/repohealth/pkg/tool"
)

// ManifestName is the basename of the manifest written next to index.html.
const ManifestName = "checkouts"

// Manifest records what a dashboard was rendered from, so it can be
// re-rendered or queried from the cache alone.
type Manifest struct {
	Title     string            `json:"title"`
	Generated time.Time         `json:"generated"`
	Tools     []tool.Descriptor `json:"tools"`
	Checkouts []Checkout        `json:"checkouts"`
}

func manifestPersister() *persist.Persister[Manifest] {
	return persist.NewPersister[Manifest](ManifestName, persist.NewJSONCodec())
}

// ManifestPath returns the manifest file inside outputDir.
func ManifestPath(outputDir string) string {
	return manifestPersister().Path(outputDir)
}

// SaveManifest writes the manifest into outputDir.
func SaveManifest(outputDir string, m *Manifest) error {
	return manifestPersister().Save(outputDir, m)
}

// LoadManifest reads the manifest from outputDir.
func LoadManifest(outputDir string) (*Manifest, error) {
	return manifestPersister().Load(outputDir)
}

// Refresh re-reads every result from the cache. Results whose cache file
// disappeared keep their recorded KPI. It reports whether anything changed.
func (m *Manifest) Refresh(store *cache.Store) (bool, error) {
	changed := false

	var errs []error

	for i := range m.Checkouts {
		c := &m.Checkouts[i]

		for j := range c.Results {
			r := &c.Results[j]
			if !store.Has(c.Hash, r.Tool) {
				continue
			}

			kpi, err := store.ReadKPI(c.Hash, r.Tool)
			if err != nil {
				errs = append(errs, err)

				continue
			}

			if kpi != r.KPI {
				r.KPI = kpi
				changed = true
			}
		}
	}

	return changed, errors.Join(errs...)
}

// Included returns the checkouts that pass Include.
func Included(checkouts []Checkout) []Checkout {
	out := make([]Checkout, 0, len(checkouts))

	for _, c := range checkouts {
		if Include(c) {
			out = append(out, c)
		}
	}

	return out
}
