package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

// bindRequest fills the request struct from the query string (GET) or the
// JSON body (POST), then from the cookie session for fields carrying a
// `session` tag. A session tag of the form `session:"name,delete"` removes
// the value from the session after binding.
func bindRequest(ctx context.Context, method string, request any) error {
	switch method {
	case http.MethodGet:
		if err := bindQuery(xcontext.HTTPRequest(ctx), request); err != nil {
			return err
		}

	case http.MethodPost:
		body := xcontext.HTTPRequest(ctx).Body
		if body != nil && body != http.NoBody {
			if err := json.NewDecoder(body).Decode(request); err != nil {
				return err
			}
		}
	}

	return bindSession(ctx, request)
}

func bindQuery(r *http.Request, request any) error {
	v := reflect.ValueOf(request).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		queryValue := r.URL.Query().Get(name)
		if queryValue == "" {
			continue
		}

		if err := setField(v.Field(i), queryValue); err != nil {
			return fmt.Errorf("invalid parameter %s: %w", name, err)
		}
	}

	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}

	return nil
}

func bindSession(ctx context.Context, request any) error {
	v := reflect.ValueOf(request).Elem()
	t := v.Type()

	var session *sessions.Session
	var needSave bool

	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("session")
		if tag == "" {
			continue
		}

		if session == nil {
			var err error
			session, err = xcontext.SessionStore(ctx).
				Get(xcontext.HTTPRequest(ctx), xcontext.Configs(ctx).Session.Name)
			if err != nil {
				return err
			}
		}

		name, option, _ := strings.Cut(tag, ",")
		if value, ok := session.Values[name].(string); ok {
			if err := setField(v.Field(i), value); err != nil {
				return fmt.Errorf("invalid session value %s: %w", name, err)
			}
		}

		if option == "delete" {
			delete(session.Values, name)
			needSave = true
		}
	}

	if needSave {
		return session.Save(xcontext.HTTPRequest(ctx), xcontext.HTTPWriter(ctx))
	}

	return nil
}
