package bigquery

import gbq "cloud.google.com/go/bigquery"

// JobSchema is the jobs table layout. It is used both when the table is
// created and when rows are loaded, and its order follows domain.ProjectedRow.
var JobSchema = gbq.Schema{
	{Name: "id", Type: gbq.IntegerFieldType},
	{Name: "url", Type: gbq.StringFieldType},
	{Name: "title", Type: gbq.StringFieldType},
	{Name: "company_name", Type: gbq.StringFieldType},
	{Name: "category", Type: gbq.StringFieldType},
	{Name: "tags", Type: gbq.StringFieldType, Repeated: true},
	{Name: "job_type", Type: gbq.StringFieldType},
	{Name: "publication_date", Type: gbq.TimestampFieldType},
	{Name: "candidate_required_location", Type: gbq.StringFieldType},
	{Name: "salary", Type: gbq.StringFieldType},
	{Name: "description", Type: gbq.StringFieldType},
}
