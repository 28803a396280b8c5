package oficio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrUnknownType = errors.New("unknown document type")

// DocumentType is the kind of defect a memo reports.
type DocumentType int

const (
	Patologia DocumentType = iota + 1
	Iluminacao
	Acostamento
	Passeio
	BaiaOnibus
)

// AllTypes lists every document type in suffix order.
var AllTypes = []DocumentType{Patologia, Iluminacao, Acostamento, Passeio, BaiaOnibus}

type typeInfo struct {
	name     string
	template string
	title    string
	imageKey string
	legend   string
	suffix   string
}

var typeInfos = map[DocumentType]typeInfo{
	Patologia:   {"Patologia", "Modelo_Patologia.docx", "Patologia", "pavement_failure", "Ponto Crítico", "PAT"},
	Iluminacao:  {"Iluminacao", "Modelo_Iluminacao.docx", "Iluminação", "public_lighting_failure", "Ponto Crítico", "ILU"},
	Acostamento: {"Acostamento", "Modelo_Acostamento.docx", "Acostamento", "paved_shoulder_failure", "Trecho Crítico", "ACO"},
	Passeio:     {"Passeio", "Modelo_Passeio.docx", "Passeio", "sidewalk_failure", "Trecho Crítico", "PAS"},
	BaiaOnibus:  {"BaiaOnibus", "Modelo_Baia_Onibus.docx", "Baia de Ônibus", "bus_bay_failure", "Ponto Crítico", "BAI"},
}

func (t DocumentType) info() typeInfo {
	return typeInfos[t]
}

func (t DocumentType) String() string {
	if info, ok := typeInfos[t]; ok {
		return info.name
	}
	return fmt.Sprintf("DocumentType(%d)", int(t))
}

// Template is the file name of the Word template.
func (t DocumentType) Template() string { return t.info().template }

// Title appears in the output file name.
func (t DocumentType) Title() string { return t.info().title }

// ImageKey names the map and photo placeholders: img_<key>_map and img_<key>.
func (t DocumentType) ImageKey() string { return t.info().imageKey }

// Legend labels the defect layer on the map.
func (t DocumentType) Legend() string { return t.info().legend }

// Suffix ends the names of the survey files of this type.
func (t DocumentType) Suffix() string { return t.info().suffix }

func (t DocumentType) MapImage() string {
	return "img_" + t.ImageKey() + "_map.png"
}

func (t DocumentType) Photo() string {
	return "img_" + t.ImageKey() + ".JPG"
}

func (t *DocumentType) UnmarshalText(text []byte) error {
	parsed, err := ParseDocumentType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseDocumentType accepts a type name ("Iluminacao", "iluminação") or a
// file suffix ("ILU").
func ParseDocumentType(s string) (DocumentType, error) {
	s = strings.TrimSpace(s)
	for _, t := range AllTypes {
		info := t.info()
		if strings.EqualFold(s, info.name) || strings.EqualFold(s, info.title) || strings.EqualFold(s, info.suffix) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// TypeFromPath reads the type from the suffix of a survey file name, e.g.
// "M1-S01-CE-350-1-ILU.gpkg".
func TypeFromPath(path string) (DocumentType, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	i := strings.LastIndex(base, "-")
	if i < 0 {
		return 0, fmt.Errorf("%w: %s has no type suffix", ErrUnknownType, filepath.Base(path))
	}
	return ParseDocumentType(base[i+1:])
}
