/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: templates.go
Description: HTML template of the classification report. Summary tiles on top, then
tabs with the rule list, the prediction sample and the phase timings.
*/

package reporting

// reportTemplate is the page template rendered by ReportGenerator
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh;
            color: #333;
        }

        .container {
            max-width: 1400px;
            margin: 0 auto;
            padding: 20px;
        }

        .header, .panel {
            background: rgba(255, 255, 255, 0.95);
            border-radius: 20px;
            padding: 30px;
            margin-bottom: 30px;
            box-shadow: 0 8px 32px rgba(0, 0, 0, 0.1);
        }

        .header {
            text-align: center;
        }

        .header h1 {
            color: #4a5568;
            font-size: 2.2rem;
            margin-bottom: 10px;
        }

        .header p {
            color: #718096;
        }

        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
            margin-bottom: 30px;
        }

        .stat-card {
            background: rgba(255, 255, 255, 0.95);
            border-radius: 15px;
            padding: 25px;
            box-shadow: 0 8px 32px rgba(0, 0, 0, 0.1);
        }

        .stat-card h3 {
            color: #4a5568;
            font-size: 1.1rem;
            margin-bottom: 15px;
        }

        .stat-card .value {
            font-size: 2.2rem;
            font-weight: 700;
            color: #2d3748;
        }

        .stat-card .label {
            color: #718096;
            font-size: 0.85rem;
            text-transform: uppercase;
        }

        .tabs {
            display: flex;
            gap: 10px;
            margin-bottom: 20px;
        }

        .tab {
            background: rgba(255, 255, 255, 0.8);
            border-radius: 10px;
            padding: 10px 20px;
            cursor: pointer;
        }

        .tab.active {
            background: #fff;
            font-weight: 700;
        }

        .tab-content {
            display: none;
        }

        .tab-content.active {
            display: block;
        }

        table {
            width: 100%;
            border-collapse: collapse;
        }

        th, td {
            text-align: left;
            padding: 8px 10px;
            border-bottom: 1px solid #e2e8f0;
        }

        th {
            color: #4a5568;
        }

        tr.default td {
            font-style: italic;
        }

        tr.wrong td.predicted {
            color: #c53030;
        }

        tr.uncovered td {
            color: #a0aec0;
        }

        .footer {
            text-align: center;
            color: rgba(255, 255, 255, 0.8);
            padding: 20px;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
            <p>Generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM"}} | Run: <span id="run-id">{{.RunID}}</span></p>
        </div>

        <div class="stats-grid">
            <div class="stat-card" id="tile-accuracy">
                <h3>Accuracy</h3>
                <div class="value">{{percent .Accuracy}}</div>
                <div class="label">All Test Instances</div>
            </div>
            <div class="stat-card" id="tile-accuracy-classified">
                <h3>Accuracy (classified)</h3>
                <div class="value">{{percent .AccuracyCovered}}</div>
                <div class="label">Without Unclassified</div>
            </div>
            <div class="stat-card" id="tile-instances">
                <h3>Instances</h3>
                <div class="value">{{.Summary.TestInstances}}</div>
                <div class="label">Test Instances</div>
            </div>
            <div class="stat-card" id="tile-correct">
                <h3>Correct</h3>
                <div class="value">{{.Summary.TruePositives}}</div>
                <div class="label">True Positives</div>
            </div>
            <div class="stat-card" id="tile-wrong">
                <h3>Wrong</h3>
                <div class="value">{{.Summary.FalsePositives}}</div>
                <div class="label">False Positives</div>
            </div>
            <div class="stat-card" id="tile-uncovered">
                <h3>Uncovered</h3>
                <div class="value">{{.Summary.Uncovered}}</div>
                <div class="label">Not Classified</div>
            </div>
            <div class="stat-card" id="tile-rules">
                <h3>Rules</h3>
                <div class="value">{{.Summary.Rules}}</div>
                <div class="label">Final Rule List</div>
            </div>
        </div>

        <div class="tabs">
            <div class="tab active" onclick="showTab(event, 'rules')">Rules</div>
            <div class="tab" onclick="showTab(event, 'predictions')">Predictions</div>
            <div class="tab" onclick="showTab(event, 'timings')">Timings</div>
        </div>

        <div id="rules" class="tab-content active panel">
            <table id="rule-table">
                <thead>
                    <tr><th>#</th><th>RID</th><th>ERID</th><th>Antecedent</th><th>Class</th><th>Support</th><th>Errors</th><th>Confidence</th></tr>
                </thead>
                <tbody>
                    {{range .Rules}}
                    <tr class="{{if .Default}}default{{else}}rule{{end}}">
                        <td>{{.Position}}</td>
                        <td>{{.ID}}</td>
                        <td>{{.GenID}}</td>
                        <td class="antecedent">{{.Antecedent}}</td>
                        <td class="class">{{.Class}}</td>
                        <td>{{.Support}}</td>
                        <td>{{.Errors}}</td>
                        <td>{{fixed .Confidence}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        <div id="predictions" class="tab-content panel">
            <p id="prediction-count">Showing {{len .Predictions}} of {{.TotalPredictions}} predictions</p>
            <table id="prediction-table">
                <thead>
                    <tr><th>TID</th><th>ID</th><th>Actual</th><th>Predicted</th><th>Trust</th><th>Rule</th><th>Method</th></tr>
                </thead>
                <tbody>
                    {{range .Predictions}}
                    <tr class="{{if not .Classified}}uncovered{{else if .Correct}}correct{{else}}wrong{{end}}">
                        <td>{{.TID}}</td>
                        <td>{{.ExternalID}}</td>
                        <td>{{.Actual}}</td>
                        <td class="predicted">{{.Predicted}}</td>
                        <td>{{if .Classified}}{{fixed .Trust}}{{end}}</td>
                        <td>{{if .RuleID}}{{.RuleID}}{{end}}</td>
                        <td>{{.Method}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        <div id="timings" class="tab-content panel">
            <table id="timing-table">
                <thead>
                    <tr><th>Phase</th><th>Duration</th></tr>
                </thead>
                <tbody>
                    {{range .Timings}}
                    <tr><td>{{.Phase}}</td><td>{{duration .Duration}}</td></tr>
                    {{end}}
                </tbody>
            </table>
        </div>
    </div>

    <div class="footer">
        <p>MARC associative rule classifier</p>
    </div>

    <script>
        function showTab(event, tabName) {
            document.querySelectorAll('.tab-content').forEach(content => content.classList.remove('active'));
            document.querySelectorAll('.tab').forEach(tab => tab.classList.remove('active'));
            document.getElementById(tabName).classList.add('active');
            event.target.classList.add('active');
        }
    </script>
</body>
</html>`
