package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/testutil"
)

const jsonFile = `{
  "projects": [
    {
      "name": "DeFi platform",
      "description": "Building a DeFi platform",
      "sponsor": "0x2222222222222222222222222222222222222222",
      "milestones": [
        {"description": "Setup", "amount": "1.0", "due_date": "2025-07-15"},
        {"description": "Launch", "amount": "4", "due_date": "2025-09-01T12:00:00Z"}
      ]
    }
  ]
}`

const yamlFile = `projects:
  - name: Audit
    description: Third-party security audit
    sponsor: "0x2222222222222222222222222222222222222222"
    milestones:
      - description: Report
        amount: "0.5"
        due_date: "2025-08-01"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndConvert_JSON(t *testing.T) {
	schema, err := LoadImportFile(writeFile(t, "projects.json", jsonFile))
	require.NoError(t, err)
	require.Empty(t, ValidateImportSchema(schema))

	inputs, err := Convert(schema)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	in := inputs[0]
	assert.Equal(t, "DeFi platform", in.Name)
	assert.Equal(t, string(testutil.Sponsor), in.Sponsor)
	assert.Equal(t, []string{"Setup", "Launch"}, in.MilestoneDescriptions)
	assert.Equal(t, []domain.Amount{domain.Unit, 4 * domain.Unit}, in.MilestoneAmounts)
	assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), in.MilestoneDueDates[0])
	assert.Equal(t, 12, in.MilestoneDueDates[1].Hour())
}

func TestLoadAndConvert_YAML(t *testing.T) {
	schema, err := LoadImportFile(writeFile(t, "projects.yml", yamlFile))
	require.NoError(t, err)
	require.Empty(t, ValidateImportSchema(schema))

	inputs, err := Convert(schema)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, domain.MustParseAmount("0.5"), inputs[0].MilestoneAmounts[0])
}

func TestLoadImportFile_Errors(t *testing.T) {
	_, err := LoadImportFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadImportFile(writeFile(t, "bad.json", "{not json"))
	assert.Error(t, err)
}

func TestValidateImportSchema_ReportsEveryProblem(t *testing.T) {
	schema := &ImportSchema{Projects: []ProjectImport{
		{
			Description: "d",
			Sponsor:     "nope",
			Milestones: []MilestoneImport{
				{Description: "a", Amount: "-1", DueDate: "2025-07-15"},
				{Description: "b", Amount: "1", DueDate: "someday"},
			},
		},
		{Name: "empty", Description: "d", Sponsor: string(testutil.Sponsor)},
	}}

	errs := ValidateImportSchema(schema)
	require.Len(t, errs, 5)
	assert.Contains(t, errs[0].Error(), "projects[0].name")
	assert.Contains(t, errs[1].Error(), "projects[0].sponsor")
	assert.Contains(t, errs[2].Error(), "projects[0].milestones[0].amount")
	assert.Contains(t, errs[3].Error(), "projects[0].milestones[1].due_date")
	assert.Contains(t, errs[4].Error(), "projects[1].milestones")

	assert.Len(t, ValidateImportSchema(&ImportSchema{}), 1)
}

func TestValidateImportSchema_RequiresDescriptions(t *testing.T) {
	schema, err := LoadImportFile(writeFile(t, "projects.yaml", `projects:
  - name: Audit
    sponsor: "0x2222222222222222222222222222222222222222"
    milestones:
      - amount: "0.5"
        due_date: "2025-08-01"
      - description: "   "
        amount: "0.5"
        due_date: "2025-08-02"
`))
	require.NoError(t, err)

	errs := ValidateImportSchema(schema)
	require.Len(t, errs, 3)
	assert.EqualError(t, errs[0], "projects[0].description is required")
	assert.EqualError(t, errs[1], "projects[0].milestones[0].description is required")
	assert.EqualError(t, errs[2], "projects[0].milestones[1].description is required")
}
