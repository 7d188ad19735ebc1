package commission_fee

import (
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// ProfileStore supplies broker cost profiles by name.
type ProfileStore interface {
	Get(name string) (CostProfile, error)
	List() []string
}

// MemoryProfileStore is a ProfileStore preloaded with the built-in broker profiles.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]CostProfile
}

// NewMemoryProfileStore returns a store containing the built-in profiles.
func NewMemoryProfileStore() *MemoryProfileStore {
	store := &MemoryProfileStore{
		mu:       sync.RWMutex{},
		profiles: make(map[string]CostProfile),
	}

	for _, profile := range []CostProfile{CMEProfile(), InteractiveBrokerProfile(), ZeroProfile()} {
		store.profiles[profile.Name] = profile
	}

	return store
}

// Put validates and stores a profile, replacing one with the same name.
func (s *MemoryProfileStore) Put(profile CostProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.Name] = profile

	return nil
}

func (s *MemoryProfileStore) Get(name string) (CostProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[name]
	if !ok {
		return CostProfile{}, errors.Newf(errors.ErrCodeCostProfileNotFound, "cost profile %q not found", name)
	}

	return profile, nil
}

func (s *MemoryProfileStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

type profileFile struct {
	Profiles []CostProfile `yaml:"profiles"`
}

// LoadProfileStore reads profiles from a YAML file on top of the built-in ones:
//
//	profiles:
//	  - name: discount
//	    commission_per_unit: 0.001
//	    min_commission: 0.35
func LoadProfileStore(path string) (*MemoryProfileStore, error) {
	store := NewMemoryProfileStore()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read cost profiles from %s", path)
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse cost profiles from %s", path)
	}

	for _, profile := range file.Profiles {
		if err := store.Put(profile); err != nil {
			return nil, err
		}
	}

	return store, nil
}
