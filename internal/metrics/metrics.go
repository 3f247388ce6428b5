package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lms-grading-service/internal/domain"
)

// Recorder exports grading and HTTP measurements to Prometheus.
type Recorder struct {
	attemptsStarted  prometheus.Counter
	attemptsGraded   *prometheus.CounterVec
	scores           prometheus.Histogram
	rejections       *prometheus.CounterVec
	lessonsCompleted prometheus.Counter

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		attemptsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_attempts_started_total",
			Help: "Total number of assessment attempts opened",
		}),
		attemptsGraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_attempts_graded_total",
			Help: "Total number of graded submissions by outcome",
		}, []string{"outcome"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lms_attempt_score_percent",
			Help:    "Distribution of graded attempt scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_submissions_rejected_total",
			Help: "Total number of rejected submissions by error kind",
		}, []string{"kind"}),
		lessonsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_lessons_completed_total",
			Help: "Total number of first-time lesson completions",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		}, []string{"method", "endpoint"}),
		gatherer: reg,
	}
	reg.MustRegister(
		r.attemptsStarted,
		r.attemptsGraded,
		r.scores,
		r.rejections,
		r.lessonsCompleted,
		r.requests,
		r.requestDuration,
	)
	return r
}

func (r *Recorder) AttemptStarted() {
	r.attemptsStarted.Inc()
}

func (r *Recorder) AttemptGraded(score float64, passed bool) {
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	r.attemptsGraded.WithLabelValues(outcome).Inc()
	r.scores.Observe(score)
}

func (r *Recorder) SubmissionRejected(kind domain.Kind) {
	r.rejections.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) LessonCompleted() {
	r.lessonsCompleted.Inc()
}

// ObserveRequest records one served HTTP request. endpoint should be the route pattern, not the raw path.
func (r *Recorder) ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	r.requests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
