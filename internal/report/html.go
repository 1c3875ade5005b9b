// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import (
	"bytes"
	"html/template"
)

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>XPU Benchmark Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #f0f0f0; padding: 20px; border-radius: 5px; margin-bottom: 20px; }
        .summary { background-color: #e8f5e8; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
        .result { margin: 10px 0; padding: 15px; border: 1px solid #ddd; border-radius: 5px; }
        .success { background-color: #d4edda; border-color: #c3e6cb; }
        .failed { background-color: #f8d7da; border-color: #f5c6cb; }
        .metrics { background-color: #f8f9fa; padding: 10px; border-radius: 3px; margin-top: 10px; }
        table { width: 100%; border-collapse: collapse; margin-top: 10px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
    </style>
</head>
<body>
    <div class="header">
        <h1>XPU Benchmark Report</h1>
        <p>Generated at: {{.Summary.Timestamp.Format "2006-01-02 15:04:05"}}</p>
        <p>Hardware Type: {{.Summary.HardwareType}}</p>
    </div>

    <div class="summary">
        <h2>Test Summary</h2>
        <p>Total Tests: {{.Summary.Total}}</p>
        <p>Successful Tests: {{.Summary.Successful}}</p>
        <p>Failed Tests: {{.Summary.Failed}}</p>
        <p>Success Rate: {{printf "%.1f" .Summary.SuccessRate}}%</p>
    </div>

    <h2>Detailed Results</h2>
{{- range .Results}}
    <div class="result {{.Status}}">
        <h3>{{.Name}}</h3>
        <p><strong>Type:</strong> {{.Kind}}</p>
        <p><strong>Status:</strong> {{.Status}}</p>
        <p><strong>Time:</strong> {{.Timestamp.Format "2006-01-02 15:04:05"}}</p>
{{- if .Error}}
        <p><strong>Error:</strong> {{.Error}}</p>
{{- end}}
{{- if .Metrics}}
        <div class="metrics">
            <h4>Metrics:</h4>
            <table>
                <tr><th>Metric</th><th>Value</th></tr>
{{- range $name, $value := .Metrics}}
                <tr><td>{{$name}}</td><td>{{$value}}</td></tr>
{{- end}}
            </table>
        </div>
{{- end}}
    </div>
{{- end}}
</body>
</html>
`))

// renderHTML renders the report through the HTML template. The template
// reads the same RunReport fields the JSON encoder serializes.
func renderHTML(report *RunReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
