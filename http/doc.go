// Package http serves an open realm as a JSON API.
//
// The API is a browser for the realm's contents: it exposes the realm summary,
// the schema classes, and paged object listings addressed by class name.
// Deletion is the only write and is disabled unless HandlerConfig.AllowWrites
// is set.
//
// # Routes
//
//	GET    /                               realm.Info
//	GET    /classes                        []Class
//	GET    /classes/{class}/objects        realm.DynamicResults
//	GET    /classes/{class}/objects/{id}   realm.DynamicObject
//	DELETE /classes/{class}/objects/{id}   204, or 403 when read only
//
// Listings accept limit (1 to 1000, default 100) and cursor. Passing field
// with prefix or equal filters on a string column:
//
//	GET /classes/Frog/objects?field=name&prefix=Ke&limit=10
//
// # Usage
//
//	r, err := realm.Open(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	handler := http.NewHandler(&http.HandlerConfig{}, http.NewRealmService(r))
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
//
// Errors are written as {"error": code, "message": text}. Missing objects and
// unknown classes map to 404, invalid queries to 400, and a closed realm to 503.
package http
