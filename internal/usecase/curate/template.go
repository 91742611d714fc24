package curate

const newsletterHTMLTemplate = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; padding: 24px; background-color: #f3f4f6; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif; color: #111827; line-height: 1.6; }
    .container { max-width: 640px; margin: 0 auto; background: #ffffff; border-radius: 8px; border: 1px solid #e5e7eb; overflow: hidden; }
    .header { padding: 20px 24px; background-color: #2c3e50; color: #ffffff; text-align: center; }
    .header h1 { margin: 0; font-size: 22px; }
    .content { padding: 20px 24px; }
    .intro { margin-bottom: 24px; }
    .news-item { margin-bottom: 28px; border-bottom: 1px solid #eee; padding-bottom: 20px; }
    .news-item h2 { font-size: 18px; margin: 0 0 8px; }
    .footer { background-color: #ecf0f1; padding: 15px; text-align: center; color: #7f8c8d; font-size: 13px; }
    a { color: #3498db; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>{{.Title}}</h1>
    </div>
    <div class="content">
      <p class="intro">{{.Intro}}</p>
{{- range .Items}}
      <div class="news-item" data-item-key="{{.Key}}">
        <h2>{{.Index}}. {{.Title}}</h2>
        <p class="summary">{{.Summary}}</p>
        <p><a href="{{.URL}}">{{$.ReadMore}} &rarr;</a></p>
      </div>
{{- end}}
    </div>
    <div class="footer">
      <p>{{.Footer}}</p>
    </div>
  </div>
</body>
</html>
`
