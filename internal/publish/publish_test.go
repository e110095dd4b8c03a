package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/cohort-retention/internal/cohort"
)

func samplePayload() *cohort.ChartPayload {
	return &cohort.ChartPayload{
		XAxis:  cohort.XAxis{Labels: []string{"Day 0", "Day 1"}, Type: "standard"},
		Series: []cohort.Series{{Data: []float64{60, 30}}},
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterSink(&buf, false).Publish(context.Background(), "daily", samplePayload()))

	assert.Equal(t, `{"x_axis":{"labels":["Day 0","Day 1"],"type":"standard"},"series":[{"data":[60,30]}]}`+"\n", buf.String())
}

func TestWriterSinkIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterSink(&buf, true).Publish(context.Background(), "daily", samplePayload()))

	assert.Contains(t, buf.String(), "\n  \"x_axis\": {")
	var decoded cohort.ChartPayload
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *samplePayload(), decoded)
}

type failingSink struct{ calls int }

func (f *failingSink) Publish(context.Context, string, *cohort.ChartPayload) error {
	f.calls++
	return errors.New("sink down")
}

func TestMultiStopsAtFirstError(t *testing.T) {
	var buf bytes.Buffer
	first := &failingSink{}
	second := &failingSink{}

	err := Multi{NewWriterSink(&buf, false), first, second}.Publish(context.Background(), "weekly", samplePayload())
	assert.EqualError(t, err, "sink down")
	assert.NotEmpty(t, buf.String())
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestGeckoboardSink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/send/123-abc", r.URL.Path)

		var body struct {
			APIKey string              `json:"api_key"`
			Data   cohort.ChartPayload `json:"data"`
		}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			assert.Equal(t, "gb-key", body.APIKey)
			assert.Equal(t, []string{"Day 0", "Day 1"}, body.Data.XAxis.Labels)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	sink := NewGeckoboardSink(server.URL+"/", "gb-key", "123-abc")
	require.NoError(t, sink.Publish(context.Background(), "daily", samplePayload()))
}

func TestGeckoboardSinkRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":"Api key has to be present"}`))
	}))
	defer server.Close()

	err := NewGeckoboardSink(server.URL, "bad", "123-abc").Publish(context.Background(), "daily", samplePayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestGeckoboardSinkRequiresKeys(t *testing.T) {
	err := NewGeckoboardSink("https://push.geckoboard.com", "", "").Publish(context.Background(), "daily", samplePayload())
	assert.Error(t, err)
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Sink(t *testing.T) {
	putter := &fakePutter{}
	sink := newS3Sink(putter, "dashboards", "retention")

	require.NoError(t, sink.Publish(context.Background(), "weekly", samplePayload()))

	assert.Equal(t, "dashboards", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "retention/weekly.json", aws.ToString(putter.input.Key))
	assert.Equal(t, "application/json", aws.ToString(putter.input.ContentType))
	assert.JSONEq(t, `{"x_axis":{"labels":["Day 0","Day 1"],"type":"standard"},"series":[{"data":[60,30]}]}`, string(putter.body))
}

func TestS3SinkError(t *testing.T) {
	sink := newS3Sink(&fakePutter{err: errors.New("AccessDenied")}, "dashboards", "retention")

	err := sink.Publish(context.Background(), "daily", samplePayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboards/retention/daily.json")
}
