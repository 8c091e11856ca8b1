// Package services implements the business logic layer of the analyzer.
// It sits between the HTTP handlers and the analysis engine, report store
// and event hub.
//
// # Available Services
//
//	- ReportService: analyzes uploaded fax log exports, stores the reports,
//	  filters their entries and renders exports (CSV, XLSX, JSON)
//	- HealthService: liveness, readiness and version information
//
// # Common Service Pattern
//
// Services receive their collaborators through the constructor and take a
// context on every operation:
//
//	svc := NewReportService(analyzer, store, hub, logger,
//	    WithTracer(providers.Tracer),
//	    WithMetrics(metrics),
//	)
//	report, err := svc.Analyze(ctx, UploadRequest{FileName: "march.csv", Data: data})
//
// # Error Handling
//
// Services return wrapped sentinel errors that handlers map to responses:
//
//	- ErrInvalidInput and validator.ValidationErrors for bad requests
//	- ErrUnsupportedFormat for files that are neither CSV nor XLSX
//	- ErrReportNotFound for unknown report identifiers
//	- *dataprocessing.MalformedInputError for unusable files
//
// # Testing
//
// Collaborators are replaced with testify mocks or the in-memory store:
//
//	hub := &MockWebSocketHub{}
//	hub.On("Broadcast", websocket.TypeReportCreated, mock.Anything).Return()
//	svc := NewReportService(analyzer, storage.NewMemoryStore(), hub, logger)
package services
