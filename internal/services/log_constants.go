package services

// Audit actions, one per ingestion step plus bulk import.
const (
	LogActionDiscovery        = "DISCOVERY"
	LogActionDownload         = "DOWNLOAD"
	LogActionHashCheck        = "HASH_CHECK"
	LogActionSpreadsheetParse = "SPREADSHEET_PARSE"
	LogActionDataStore        = "DATA_STORE"
	LogActionBulkImport       = "BULK_IMPORT"
)

const (
	LogOutcomeSuccess = "SUCCESS"
	LogOutcomeFail    = "FAIL"
	LogOutcomeSkipped = "SKIPPED"
)

var logActions = map[string]bool{
	LogActionDiscovery:        true,
	LogActionDownload:         true,
	LogActionHashCheck:        true,
	LogActionSpreadsheetParse: true,
	LogActionDataStore:        true,
	LogActionBulkImport:       true,
}

var logOutcomes = map[string]bool{
	LogOutcomeSuccess: true,
	LogOutcomeFail:    true,
	LogOutcomeSkipped: true,
}

func IsLogAction(action string) bool {
	return logActions[action]
}

func IsLogOutcome(outcome string) bool {
	return logOutcomes[outcome]
}
