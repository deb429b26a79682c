package service

import (
	"context"
	"fmt"
	"log"
	"os"

	"upager-license-server/internal/model"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"gorm.io/gorm"
)

// SheetSyncService mirrors license rows into a Google Sheet so support
// staff can browse them without database access. The sheet is a read-only
// mirror; the database stays authoritative. A nil service is valid and
// every method on it is a no-op.
type SheetSyncService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetSyncService(enableSync bool, credentialPath, spreadsheetID, sheetName string) (*SheetSyncService, error) {
	if !enableSync {
		return nil, nil
	}

	ctx := context.Background()

	b, err := os.ReadFile(credentialPath)
	if err != nil {
		return nil, err
	}

	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("loading sheet credentials: %v", err)
	}

	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}

	return &SheetSyncService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func (s *SheetSyncService) row(license *model.License) []interface{} {
	activatedAt := ""
	if license.ActivatedAt != nil {
		activatedAt = license.ActivatedAt.Format("2006-01-02 15:04:05")
	}
	expiresAt := ""
	if license.ExpiresAt != nil {
		expiresAt = license.ExpiresAt.Format("2006-01-02 15:04:05")
	}
	return []interface{}{
		license.Key,
		license.Email,
		license.Tier,
		license.BillingType,
		license.Status,
		fmt.Sprintf("%d/%d", license.CurrentActivations, license.MaxActivations),
		license.CreatedAt.Format("2006-01-02 15:04:05"),
		activatedAt,
		expiresAt,
	}
}

// SyncLicense upserts one license row into the sheet, keyed on column A.
func (s *SheetSyncService) SyncLicense(license *model.License) error {
	if s == nil {
		return nil
	}

	keyResp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A2:A").Do()
	if err != nil {
		log.Printf("sheet sync: reading key column failed: %v", err)
		return err
	}

	rowIndex := 0
	for i, row := range keyResp.Values {
		if len(row) > 0 && row[0] == license.Key {
			rowIndex = i + 2 // data starts at A2
			break
		}
	}

	values := &sheets.ValueRange{Values: [][]interface{}{s.row(license)}}

	if rowIndex > 0 {
		rangeData := fmt.Sprintf("%s!A%d:I%d", s.sheetName, rowIndex, rowIndex)
		_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, values).
			ValueInputOption("USER_ENTERED").Do()
	} else {
		_, err = s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetName+"!A2:I", values).
			ValueInputOption("USER_ENTERED").Do()
	}
	if err != nil {
		log.Printf("sheet sync: writing license %s failed: %v", license.Key, err)
		return err
	}

	return nil
}

// SyncAll rewrites the sheet's data range from the database, oldest first.
// Intended for startup so the mirror catches up after downtime.
func (s *SheetSyncService) SyncAll(db *gorm.DB) error {
	if s == nil {
		return nil
	}

	var licenses []model.License
	if err := db.Order("created_at ASC").Find(&licenses).Error; err != nil {
		return err
	}

	values := make([][]interface{}, 0, len(licenses))
	for i := range licenses {
		values = append(values, s.row(&licenses[i]))
	}

	clearRange := s.sheetName + "!A2:I"
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Do(); err != nil {
		return fmt.Errorf("clearing sheet: %v", err)
	}
	if len(values) == 0 {
		return nil
	}

	_, err := s.service.Spreadsheets.Values.Append(
		s.spreadsheetID,
		clearRange,
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Do()
	if err != nil {
		return fmt.Errorf("writing sheet: %v", err)
	}

	log.Printf("sheet sync: mirrored %d licenses", len(values))
	return nil
}
