package osdr

import (
	"fmt"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/errors"
)

// Dataset is the decoded study files response.
type Dataset struct {
	Hits    int              `json:"hits"`
	Success bool             `json:"success"`
	Studies map[string]Study `json:"studies"`

	source string
}

// Study holds the file listing of one OSD study.
type Study struct {
	FileCount  int         `json:"file_count"`
	StudyFiles []StudyFile `json:"study_files"`
}

// StudyFile is one file record of a study. Only FileName and Subcategory
// take part in aggregation. Both are nil when the record omits them or
// carries JSON null, which is distinct from an empty string.
type StudyFile struct {
	FileName    *string `json:"file_name"`
	Category    string  `json:"category"`
	Subcategory *string `json:"subcategory"`
	FileSize    int64   `json:"file_size"`
	RemoteURL   string  `json:"remote_url"`
	Restricted  bool    `json:"restricted"`
}

// StudyKey returns the key of a study in Dataset.Studies, e.g. "OSD-201".
func StudyKey(id int) string {
	return fmt.Sprintf("OSD-%d", id)
}

// StudyFiles returns the file records of the given study. A study absent
// from the dataset returns *errors.DataFormatError matching
// errors.ErrStudyNotFound.
func (d *Dataset) StudyFiles(studyID int) ([]StudyFile, error) {
	key := StudyKey(studyID)
	study, ok := d.Studies[key]
	if !ok {
		return nil, errors.NewDataFormatError(d.source, fmt.Errorf("%w: %s", errors.ErrStudyNotFound, key))
	}
	return study.StudyFiles, nil
}
