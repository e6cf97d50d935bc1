package layout

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

//go:embed layouts/*.yml
var embedded embed.FS

const baseDocument = "febraban.yml"

// ErrUnknownSegment indica segmento não declarado para o banco/versão.
var ErrUnknownSegment = errors.New("segmento não declarado no layout")

type document struct {
	Common   map[string]fieldDoc   `yaml:"common"`
	Segments map[string]segmentDoc `yaml:"segments"`
	Versions map[string]struct {
		Segments map[string]segmentDoc `yaml:"segments"`
	} `yaml:"versions"`
}

type segmentDoc struct {
	Replace bool                `yaml:"replace"`
	Fields  map[string]fieldDoc `yaml:"fields"`
	Omit    []string            `yaml:"omit"`
}

type fieldDoc struct {
	Pos      []int  `yaml:"pos"`
	Picture  string `yaml:"picture"`
	Default  string `yaml:"default"`
	Required bool   `yaml:"required"`
}

type cacheKey struct {
	bank    int
	version string
	tag     string
}

// Loader carrega layouts YAML e memoriza os schemas por (banco, versão, segmento).
// É seguro para uso concorrente.
type Loader struct {
	sources []fs.FS

	mu    sync.RWMutex
	cache map[cacheKey]*Schema
	group singleflight.Group
}

// NewLoader cria um loader que procura os arquivos nas fontes informadas, em
// ordem, e por último nos layouts embutidos.
func NewLoader(sources ...fs.FS) *Loader {
	sub, _ := fs.Sub(embedded, "layouts")
	return &Loader{
		sources: append(sources, sub),
		cache:   make(map[cacheKey]*Schema),
	}
}

var (
	defaultLoader     *Loader
	defaultLoaderOnce sync.Once
)

// Default devolve o loader do processo, baseado apenas nos layouts embutidos.
func Default() *Loader {
	defaultLoaderOnce.Do(func() {
		defaultLoader = NewLoader()
	})
	return defaultLoader
}

// Load devolve o schema do segmento para o banco e versão de layout.
func (l *Loader) Load(bank int, version, tag string) (*Schema, error) {
	key := cacheKey{bank: bank, version: version, tag: strings.ToUpper(tag)}

	l.mu.RLock()
	s, ok := l.cache[key]
	l.mu.RUnlock()
	if ok {
		return s, nil
	}

	v, err, _ := l.group.Do(fmt.Sprintf("%03d/%s/%s", key.bank, key.version, key.tag), func() (interface{}, error) {
		l.mu.RLock()
		cached, ok := l.cache[key]
		l.mu.RUnlock()
		if ok {
			return cached, nil
		}
		built, err := l.build(key)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cache[key] = built
		l.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Schema), nil
}

func (l *Loader) build(key cacheKey) (*Schema, error) {
	base, err := l.readDocument(baseDocument)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, fmt.Errorf("layout base %s não encontrado", baseDocument)
	}

	common := make(map[string]fieldDoc)
	for name, f := range base.Common {
		common[name] = f
	}
	merged := make(map[string]fieldDoc)
	found := false
	if seg, ok := base.Segments[key.tag]; ok {
		found = true
		applySegment(merged, common, seg)
	}

	bankDoc, err := l.readDocument(fmt.Sprintf("%03d.yml", key.bank))
	if err != nil {
		return nil, err
	}
	if bankDoc != nil {
		if seg, ok := bankDoc.Segments[key.tag]; ok {
			found = true
			applySegment(merged, common, seg)
		}
		if key.version != "" {
			version, ok := bankDoc.Versions[key.version]
			if !ok {
				return nil, fmt.Errorf("banco %03d: versão de layout %q desconhecida", key.bank, key.version)
			}
			if seg, ok := version.Segments[key.tag]; ok {
				found = true
				applySegment(merged, common, seg)
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("banco %03d, segmento %s: %w", key.bank, key.tag, ErrUnknownSegment)
	}

	for name, f := range common {
		if _, ok := merged[name]; !ok {
			merged[name] = f
		}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(merged))
	for _, name := range names {
		f, err := toField(name, merged[name])
		if err != nil {
			return nil, fmt.Errorf("segmento %s: %w", key.tag, err)
		}
		if name == "codigo_segmento" && f.Default == "" {
			f.Default = key.tag
		}
		fields = append(fields, f)
	}
	return newSchema(key.bank, key.version, key.tag, fields)
}

// applySegment aplica uma sobrescrita de segmento. replace descarta os campos
// próprios do segmento acumulados até aqui, mantendo os comuns. omit vem antes
// de fields, então um campo omitido pode ser redeclarado em outra posição.
func applySegment(merged, common map[string]fieldDoc, seg segmentDoc) {
	if seg.Replace {
		for name := range merged {
			delete(merged, name)
		}
		for name, f := range common {
			merged[name] = f
		}
	}
	for _, name := range seg.Omit {
		delete(merged, name)
		delete(common, name)
	}
	for name, f := range seg.Fields {
		merged[name] = f
	}
}

func toField(name string, doc fieldDoc) (Field, error) {
	if len(doc.Pos) != 2 {
		return Field{}, fmt.Errorf("campo %s: pos deve ter início e fim", name)
	}
	kind, size, scale, err := parsePicture(doc.Picture)
	if err != nil {
		return Field{}, fmt.Errorf("campo %s: %w", name, err)
	}
	f := Field{
		Name:     name,
		Start:    doc.Pos[0],
		End:      doc.Pos[1],
		Kind:     kind,
		Scale:    scale,
		Default:  doc.Default,
		Required: doc.Required,
	}
	if f.Width() != size {
		return Field{}, fmt.Errorf("campo %s: picture %s não cabe em %d colunas", name, doc.Picture, f.Width())
	}
	return f, nil
}

// readDocument devolve nil, nil quando nenhuma fonte tem o arquivo.
func (l *Loader) readDocument(name string) (*document, error) {
	for _, src := range l.sources {
		data, err := fs.ReadFile(src, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("falha ao ler layout %s: %w", name, err)
		}
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("falha ao interpretar layout %s: %w", name, err)
		}
		return &doc, nil
	}
	return nil, nil
}
