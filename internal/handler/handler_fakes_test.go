package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/service"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(rec *httptest.ResponseRecorder) responseEnvelope {
	var env responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return env
}

func newGinContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

func withParams(c *gin.Context, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		c.Params = append(c.Params, gin.Param{Key: kv[i], Value: kv[i+1]})
	}
}

type fakeEnrollmentSrv struct {
	filter    models.EnrollmentFilter
	enrollReq service.EnrollSubjectsRequest
	enrollID  string
	result    *service.EnrollSubjectsResult
	plan      *service.ProgressionPlan
	failed    []models.FailedSubject
	dropped   [2]string
	err       error
}

func (f *fakeEnrollmentSrv) List(_ context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	f.filter = filter
	return []models.EnrollmentDetail{}, models.NewPagination(filter.Page, filter.PageSize, 0), f.err
}

func (f *fakeEnrollmentSrv) Get(context.Context, string) (*models.EnrollmentDetail, error) {
	return &models.EnrollmentDetail{}, f.err
}

func (f *fakeEnrollmentSrv) Create(_ context.Context, req service.CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	detail := &models.EnrollmentDetail{}
	detail.StudentID = req.StudentID
	return detail, nil
}

func (f *fakeEnrollmentSrv) Update(context.Context, string, service.UpdateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	return &models.EnrollmentDetail{}, f.err
}

func (f *fakeEnrollmentSrv) Delete(context.Context, string) error { return f.err }

func (f *fakeEnrollmentSrv) AvailableSubjects(context.Context, string) (*service.ProgressionPlan, error) {
	return f.plan, f.err
}

func (f *fakeEnrollmentSrv) EnrollSubjects(_ context.Context, id string, req service.EnrollSubjectsRequest) (*service.EnrollSubjectsResult, error) {
	f.enrollID = id
	f.enrollReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeEnrollmentSrv) ListSubjects(context.Context, string) ([]models.SubjectEnrollmentDetail, error) {
	return nil, f.err
}

func (f *fakeEnrollmentSrv) DropSubject(_ context.Context, enrollmentID, subjectEnrollmentID string) error {
	f.dropped = [2]string{enrollmentID, subjectEnrollmentID}
	return f.err
}

func (f *fakeEnrollmentSrv) FailedSubjects(context.Context, string) ([]models.FailedSubject, error) {
	return f.failed, f.err
}

type fakeEvaluationSrv struct {
	recorded service.RecordEvaluationRequest
	updated  service.UpdateEvaluationRequest
	result   *service.EvaluationResult
	err      error
}

func (f *fakeEvaluationSrv) List(context.Context, string) ([]models.Evaluation, error) {
	return []models.Evaluation{}, f.err
}

func (f *fakeEvaluationSrv) Record(_ context.Context, req service.RecordEvaluationRequest) (*service.EvaluationResult, error) {
	f.recorded = req
	return f.result, f.err
}

func (f *fakeEvaluationSrv) Update(_ context.Context, _ string, req service.UpdateEvaluationRequest) (*service.EvaluationResult, error) {
	f.updated = req
	return f.result, f.err
}

func (f *fakeEvaluationSrv) Delete(context.Context, string) (*service.EvaluationResult, error) {
	return f.result, f.err
}

type fakeReportSrv struct {
	card      *models.ReportCard
	receipt   *models.EnrollmentReceipt
	doc       *service.RenderedDocument
	format    models.ReportFormat
	rendered  string
	sheetYear int64
	err       error
}

func (f *fakeReportSrv) ReportCard(context.Context, string) (*models.ReportCard, error) {
	return f.card, f.err
}

func (f *fakeReportSrv) GradeRegister(context.Context, string) (*models.GradeRegister, error) {
	return &models.GradeRegister{}, f.err
}

func (f *fakeReportSrv) SectionSheet(_ context.Context, _ string, year int64) (*models.SectionSheet, error) {
	f.sheetYear = year
	return &models.SectionSheet{SchoolYearID: year}, f.err
}

func (f *fakeReportSrv) RenderReportCard(_ context.Context, _ string, format models.ReportFormat) (*service.RenderedDocument, error) {
	f.format = format
	return f.doc, f.err
}

func (f *fakeReportSrv) RenderGradeRegister(_ context.Context, _ string, format models.ReportFormat) (*service.RenderedDocument, error) {
	f.format = format
	return f.doc, f.err
}

func (f *fakeReportSrv) RenderSectionSheet(_ context.Context, _ string, year int64, format models.ReportFormat) (*service.RenderedDocument, error) {
	f.format = format
	f.sheetYear = year
	return f.doc, f.err
}

func (f *fakeReportSrv) EnrollmentReceipt(context.Context, string) (*models.EnrollmentReceipt, error) {
	return f.receipt, f.err
}

func (f *fakeReportSrv) RenderEnrollmentReceipt(_ context.Context, id string, format models.ReportFormat) (*service.RenderedDocument, error) {
	f.format, f.rendered = format, "receipt:"+id
	return f.doc, f.err
}

func (f *fakeReportSrv) RenderStudentCertificate(_ context.Context, id string, format models.ReportFormat) (*service.RenderedDocument, error) {
	f.format, f.rendered = format, "study:"+id
	return f.doc, f.err
}

func (f *fakeReportSrv) RenderTeacherCertificate(_ context.Context, id string, year int64, format models.ReportFormat) (*service.RenderedDocument, error) {
	f.format, f.rendered, f.sheetYear = format, "work:"+id, year
	return f.doc, f.err
}

type fakeDashboardSrv struct {
	stats *models.DashboardStats
	hit   bool
	year  int64
	err   error
}

func (f *fakeDashboardSrv) Summary(_ context.Context, year int64) (*models.DashboardStats, bool, error) {
	f.year = year
	return f.stats, f.hit, f.err
}

type fakeAuthSrv struct {
	login *models.LoginResponse
	me    *models.UserInfo
	err   error
	user  string
}

func (f *fakeAuthSrv) Login(context.Context, models.LoginRequest) (*models.LoginResponse, error) {
	return f.login, f.err
}

func (f *fakeAuthSrv) Me(_ context.Context, userID string) (*models.UserInfo, error) {
	f.user = userID
	return f.me, f.err
}
