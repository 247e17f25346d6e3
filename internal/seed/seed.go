// Package seed builds a starting folder tree from a YAML description.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	models "stationdocs/internal/domain/models/hierarchy"
)

//go:embed data/sample_tree.yaml
var sampleTree []byte

// SampleTree returns the embedded sample tree
func SampleTree() []byte { return sampleTree }

// Tree is the top level of a seed file: the contents of the root folder
type Tree struct {
	Folders []Folder `yaml:"folders"`
	Files   []File   `yaml:"files"`
}

// Folder is a folder and everything below it
type Folder struct {
	Name    string   `yaml:"name"`
	Folders []Folder `yaml:"folders"`
	Files   []File   `yaml:"files"`
}

// File is a file entry. Zero values get the store's defaults.
type File struct {
	Name     string     `yaml:"name"`
	Modified *time.Time `yaml:"modified"`
	Size     string     `yaml:"size"`
	URL      string     `yaml:"url"`
	Content  []string   `yaml:"content"`
}

// Builder is the store surface seeding needs
type Builder interface {
	RootPath() models.Path
	CreateFolder(name string, path models.Path) (*models.Node, error)
	AddFiles(items []models.FileInput) ([]models.Node, error)
}

// Stats counts what a load created
type Stats struct {
	Folders int
	Files   int
}

// Parse decodes a seed file
func Parse(data []byte) (*Tree, error) {
	var tree Tree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &tree, nil
}

// ReadFile returns the seed at path, or the embedded sample when path is empty
func ReadFile(path string) ([]byte, error) {
	if path == "" {
		return sampleTree, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return data, nil
}

// Load parses data and creates its folders and files under the store's root.
// It stops at the first store error; what was created before stays.
func Load(store Builder, data []byte) (Stats, error) {
	tree, err := Parse(data)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	root := store.RootPath()
	if err := addFiles(store, root, tree.Files, &stats); err != nil {
		return stats, err
	}
	for _, f := range tree.Folders {
		if err := addFolder(store, root, f, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func addFolder(store Builder, parent models.Path, f Folder, stats *Stats) error {
	node, err := store.CreateFolder(f.Name, parent)
	if err != nil {
		return fmt.Errorf("seed folder %q in %s: %w", f.Name, parent, err)
	}
	stats.Folders++

	// The stored name is trimmed
	here := parent.Child(node.Name)
	if err := addFiles(store, here, f.Files, stats); err != nil {
		return err
	}
	for _, child := range f.Folders {
		if err := addFolder(store, here, child, stats); err != nil {
			return err
		}
	}
	return nil
}

func addFiles(store Builder, dir models.Path, files []File, stats *Stats) error {
	if len(files) == 0 {
		return nil
	}

	inputs := make([]models.FileInput, 0, len(files))
	for _, f := range files {
		inputs = append(inputs, models.FileInput{
			Name:     f.Name,
			Modified: f.Modified,
			Size:     f.Size,
			Path:     dir,
			Content:  f.Content,
			URL:      f.URL,
		})
	}

	added, err := store.AddFiles(inputs)
	if err != nil {
		return fmt.Errorf("seed files in %s: %w", dir, err)
	}
	stats.Files += len(added)
	return nil
}
