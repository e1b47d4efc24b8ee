package source

import (
	"fmt"

	"github.com/j-veylop/supervision-hours/internal/logger"
	"github.com/j-veylop/supervision-hours/internal/models"
)

var (
	colDirectProviderID = column{"DirectProviderId", "direct_provider_id"}
	colDirectFirst      = column{"DirectFirstName", "direct_first_name"}
	colDirectLast       = column{"DirectLastName", "direct_last_name"}
	colDirectLocation   = column{"DirectServiceLocationName", "direct_location"}
	colDirectHours      = column{"DirectHours", "direct_hours"}
	colSupervisionHours = column{"SupervisionHours", "supervision_hours"}
	colSupervisorID     = column{"SupervisorProviderId", "SupervisorId", "supervisor_id"}
	colSupervisorFirst  = column{"SupervisorFirstName", "supervisor_first_name"}
	colSupervisorLast   = column{"SupervisorLastName", "supervisor_last_name"}
	colSupervisorLoc    = column{"SupervisorServiceLocationName", "supervisor_location"}
	colRowType          = column{"RowType", "row_type"}

	colCredProvider = column{"ProviderContactId", "ProviderId", "DirectProviderId"}
	colCredCodes    = column{"BACBSupervisionCodes_binary", "BACBSupervisionCodes", "credential_codes"}
	colCredHours    = column{"BACBSupervisionHours", "credential_hours"}
)

// ReadClassifiedCSV reads rows that were already split into direct-only,
// overlap and supervision-only. Rows with an unknown row type or unparseable
// hours are skipped and counted in invalid.
func ReadClassifiedCSV(path string) (rows []models.ClassifiedRow, invalid int, err error) {
	file, reader, headers, err := openCSV(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	rowType, err := headers.require(colRowType)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	directHours, err := headers.require(colDirectHours)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	supervisionHours, err := headers.require(colSupervisionHours)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	var (
		clientID     = headers.find(colClientID)
		clientName   = headers.find(colClientName)
		clientOffice = headers.find(colClientOffice)
		providerID   = headers.find(colDirectProviderID)
		directFirst  = headers.find(colDirectFirst)
		directLast   = headers.find(colDirectLast)
		directLoc    = headers.find(colDirectLocation)
		supervisorID = headers.find(colSupervisorID)
		supFirst     = headers.find(colSupervisorFirst)
		supLast      = headers.find(colSupervisorLast)
		supLoc       = headers.find(colSupervisorLoc)
	)

	err = eachRecord(reader, func(record []string) error {
		rt, err := models.ParseRowType(getValue(record, rowType))
		if err != nil {
			invalid++
			logger.Debug("skipping classified row", "path", path, "error", err)
			return nil
		}
		direct, derr := models.ParseHours(getValue(record, directHours))
		supervision, serr := models.ParseHours(getValue(record, supervisionHours))
		if derr != nil || serr != nil {
			invalid++
			return nil
		}
		rows = append(rows, models.ClassifiedRow{
			RowType:             rt,
			ClientID:            getValue(record, clientID),
			ClientName:          getValue(record, clientName),
			ClientOffice:        getValue(record, clientOffice),
			DirectProviderID:    getValue(record, providerID),
			DirectFirstName:     getValue(record, directFirst),
			DirectLastName:      getValue(record, directLast),
			DirectLocation:      getValue(record, directLoc),
			SupervisorID:        getValue(record, supervisorID),
			SupervisorFirstName: getValue(record, supFirst),
			SupervisorLastName:  getValue(record, supLast),
			SupervisorLocation:  getValue(record, supLoc),
			DirectHours:         direct,
			SupervisionHours:    supervision,
		})
		return nil
	})
	if err != nil {
		return nil, invalid, fmt.Errorf("%s: %w", path, err)
	}
	return rows, invalid, nil
}

// ReadCredentialCSV reads per-provider certification-board supervision
// figures. Missing or unparseable values read as zero.
func ReadCredentialCSV(path string) ([]models.CredentialRecord, error) {
	file, reader, headers, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	provider, err := headers.require(colCredProvider)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	codes := headers.find(colCredCodes)
	hours := headers.find(colCredHours)

	var creds []models.CredentialRecord
	err = eachRecord(reader, func(record []string) error {
		id := getValue(record, provider)
		if id == "" {
			return nil
		}
		h, err := models.ParseHours(getValue(record, hours))
		if err != nil {
			logger.Warn("invalid credential hours", "path", path, "provider", id, "error", err)
		}
		creds = append(creds, models.CredentialRecord{
			ProviderID: id,
			HasCodes:   truthy(getValue(record, codes)),
			Hours:      h,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return creds, nil
}

func truthy(v string) bool {
	switch v {
	case "1", "1.0", "true", "TRUE", "True", "yes", "Y", "y":
		return true
	}
	return false
}
