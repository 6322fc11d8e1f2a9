package ioc

import (
	"github.com/gotomicro/ego/core/econf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "msgpulse"

// InitZipkinTracer 没有配置 trace.zipkin.endpoint 时只在进程内生成 span
func InitZipkinTracer() *trace.TracerProvider {
	opts := []trace.TracerProviderOption{
		trace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	}
	if endpoint := econf.GetString("trace.zipkin.endpoint"); endpoint != "" {
		exporter, err := zipkin.New(endpoint)
		if err != nil {
			panic(err)
		}
		opts = append(opts, trace.WithBatcher(exporter))
	}
	tp := trace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp
}
