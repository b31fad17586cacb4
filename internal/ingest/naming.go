package ingest

import (
	"path/filepath"
	"strings"

	"github.com/dkitanovski/contract-extractor/constants"
)

// docNameToType maps the contract title a source file is named after to its
// layout family. Matching is prefix-based on the stem because the upstream
// system appends counters and dates to the title.
var docNameToType = map[string]constants.DocType{
	"Договор за засновање претплатнички однос за користење":                                       constants.DocType1,
	"Договор за купопродажба на уреди со одложено плаќање на рати":                                constants.DocType2,
	"Договор за користење на јавни комуникациски услуги":                                          constants.DocType3,
	"БАРАЊЕ ЗА ПРЕНЕСУВАЊЕ НА УСЛУГИ ПОМЕЃУ РАЗЛИЧНИ БАН БРОЕВИ КОИ ПРИПАЃААТ НА ИСТ ПРЕТПЛАТНИК": constants.DocType5,
}

// TypeFromFilename derives the document type from a file's name. Longer
// titles are preferred so overlapping prefixes resolve to the more specific
// type. Unknown names map to the undefined type.
func TypeFromFilename(name string) constants.DocType {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	best := constants.DocTypeUndefined
	bestLen := 0
	for title, t := range docNameToType {
		if strings.HasPrefix(stem, title) && len(title) > bestLen {
			best = t
			bestLen = len(title)
		}
	}
	return best
}
