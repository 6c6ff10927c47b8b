// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"encoding/base64"
	"time"

	"github.com/gantry-dev/gantry/dispatch"
	"github.com/gantry-dev/gantry/registry"
	"github.com/gantry-dev/gantry/trace"
)

// registerHandlers builds the method table. The names are the wire
// contract shared with the coordinator and every controller.
func (r *Runtime) registerHandlers() {
	d := r.dispatcher

	d.Register("ping", func(map[string]any) (any, error) {
		return map[string]any{"pong": true}, nil
	})

	// --- State and navigation ---

	d.Register("get_app_state", func(params map[string]any) (any, error) {
		if name, err := dispatch.OptionalString(params, "name", ""); err != nil {
			return nil, err
		} else if name != "" {
			value, ok := r.State.Get(name)
			if !ok {
				return nil, dispatch.InvalidParams("no state registered as %q", name)
			}
			return map[string]any{name: value}, nil
		}
		return r.State.All(), nil
	})

	d.Register("get_navigation_state", func(map[string]any) (any, error) {
		return r.Navigation.State(), nil
	})

	// --- Feature flags ---

	d.Register("list_feature_flags", func(map[string]any) (any, error) {
		return map[string]any{"flags": r.Flags.All()}, nil
	})

	d.Register("toggle_feature_flag", func(params map[string]any) (any, error) {
		name, err := dispatch.StringParam(params, "name")
		if err != nil {
			return nil, err
		}
		value, present, err := dispatch.OptionalBool(params, "value")
		if err != nil {
			return nil, err
		}
		var explicit *bool
		if present {
			explicit = &value
		}
		newValue, ok := r.Flags.Toggle(name, explicit)
		if !ok {
			return nil, dispatch.InvalidParams("no feature flag registered as %q", name)
		}
		return map[string]any{"name": name, "value": newValue}, nil
	})

	// --- Network ---

	d.Register("list_network_requests", func(params map[string]any) (any, error) {
		limit, err := dispatch.OptionalInt(params, "limit", 0)
		if err != nil {
			return nil, err
		}
		return map[string]any{"requests": r.NetworkMocks.Requests(limit)}, nil
	})

	d.Register("mock_network_response", func(params map[string]any) (any, error) {
		pattern, err := dispatch.StringParam(params, "pattern")
		if err != nil {
			return nil, err
		}
		status, err := dispatch.OptionalInt(params, "status", 200)
		if err != nil {
			return nil, err
		}
		body, err := dispatch.OptionalString(params, "body", "")
		if err != nil {
			return nil, err
		}
		headers, err := dispatch.OptionalMap(params, "headers")
		if err != nil {
			return nil, err
		}
		response := registry.MockResponse{Status: status, Body: body}
		if len(headers) > 0 {
			response.Headers = make(map[string]string, len(headers))
			for key, value := range headers {
				text, ok := value.(string)
				if !ok {
					return nil, dispatch.InvalidParams("header %q must be a string", key)
				}
				response.Headers[key] = text
			}
		}
		if err := r.NetworkMocks.Register(pattern, response); err != nil {
			return nil, dispatch.InvalidParams("bad mock pattern: %v", err)
		}
		return map[string]any{"pattern": pattern}, nil
	})

	d.Register("list_network_mocks", func(map[string]any) (any, error) {
		return map[string]any{"mocks": r.NetworkMocks.Rules()}, nil
	})

	d.Register("clear_network_mocks", func(map[string]any) (any, error) {
		r.NetworkMocks.Clear()
		return map[string]any{"cleared": true}, nil
	})

	// --- UI capture (delegated to the platform layer) ---

	d.Register("capture_screenshot", func(map[string]any) (any, error) {
		if r.config.Screenshot == nil {
			return nil, dispatch.NotInitialized("no screenshot capture wired for this application")
		}
		image, err := r.config.Screenshot()
		if err != nil {
			return nil, err
		}
		return map[string]any{"format": "png", "data": base64.StdEncoding.EncodeToString(image)}, nil
	})

	d.Register("get_layout_tree", func(map[string]any) (any, error) {
		if r.config.LayoutTree != nil {
			tree, err := r.config.LayoutTree()
			if err != nil {
				return nil, err
			}
			return map[string]any{"tree": tree}, nil
		}
		return map[string]any{"roots": r.Components.Tree()}, nil
	})

	d.Register("get_component_tree", func(map[string]any) (any, error) {
		return map[string]any{"roots": r.Components.Tree()}, nil
	})

	// --- Logs and metadata ---

	d.Register("get_logs", func(params map[string]any) (any, error) {
		limit, err := dispatch.OptionalInt(params, "limit", 0)
		if err != nil {
			return nil, err
		}
		return map[string]any{"logs": r.Logs.Recent(limit)}, nil
	})

	d.Register("get_recent_errors", func(params map[string]any) (any, error) {
		limit, err := dispatch.OptionalInt(params, "limit", 0)
		if err != nil {
			return nil, err
		}
		return map[string]any{"errors": r.Logs.RecentErrors(limit)}, nil
	})

	d.Register("get_device_info", func(map[string]any) (any, error) {
		return map[string]any{
			"platform":  r.config.Identity.Platform,
			"osVersion": r.config.Identity.OSVersion,
		}, nil
	})

	d.Register("get_app_info", func(map[string]any) (any, error) {
		return map[string]any{
			"appName":      r.config.Identity.AppName,
			"appVersion":   r.config.Identity.AppVersion,
			"capabilities": r.config.Identity.Capabilities,
		}, nil
	})

	// --- Actions ---

	d.Register("execute_action", func(params map[string]any) (any, error) {
		action, err := dispatch.StringParam(params, "action")
		if err != nil {
			return nil, err
		}
		actionParams, err := dispatch.OptionalMap(params, "params")
		if err != nil {
			return nil, err
		}
		return r.Actions.Invoke(action, actionParams)
	})

	// --- Tracing ---

	d.Register("get_traces", func(params map[string]any) (any, error) {
		name, err := dispatch.OptionalString(params, "name", "")
		if err != nil {
			return nil, err
		}
		minMillis, err := dispatch.OptionalInt(params, "minDurationMs", 0)
		if err != nil {
			return nil, err
		}
		limit, err := dispatch.OptionalInt(params, "limit", 0)
		if err != nil {
			return nil, err
		}
		filter := trace.Filter{
			Name:        name,
			MinDuration: time.Duration(minMillis) * time.Millisecond,
			Limit:       limit,
		}
		return map[string]any{"traces": r.Traces.Traces(filter)}, nil
	})

	d.Register("get_active_traces", func(map[string]any) (any, error) {
		return map[string]any{"traces": r.Traces.Active()}, nil
	})

	d.Register("clear_traces", func(map[string]any) (any, error) {
		r.Traces.Clear()
		return map[string]any{"cleared": true}, nil
	})

	d.Register("inject_trace", func(params map[string]any) (any, error) {
		pattern, err := dispatch.StringParam(params, "pattern")
		if err != nil {
			return nil, err
		}
		logArgs, _, err := dispatch.OptionalBool(params, "logArgs")
		if err != nil {
			return nil, err
		}
		logReturn, _, err := dispatch.OptionalBool(params, "logReturn")
		if err != nil {
			return nil, err
		}
		injection, injectErr := r.Traces.Inject(pattern, logArgs, logReturn)
		if injectErr != nil {
			return nil, dispatch.InvalidParams("bad trace pattern: %v", injectErr)
		}
		return injection, nil
	})

	d.Register("list_injected_traces", func(map[string]any) (any, error) {
		return map[string]any{"injections": r.Traces.Injections()}, nil
	})

	d.Register("remove_injected_trace", func(params map[string]any) (any, error) {
		id, err := dispatch.StringParam(params, "id")
		if err != nil {
			return nil, err
		}
		if !r.Traces.RemoveInjection(id) {
			return nil, dispatch.InvalidParams("no trace injection with id %q", id)
		}
		return map[string]any{"removed": id}, nil
	})

	d.Register("clear_injected_traces", func(map[string]any) (any, error) {
		r.Traces.ClearInjections()
		return map[string]any{"cleared": true}, nil
	})
}
