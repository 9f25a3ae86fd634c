package identity

import "testing"

func TestParseRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Role
	}{
		{in: "technician", want: RoleTechnician},
		{in: "Technician", want: RoleTechnician},
		{in: "  customer ", want: RoleCustomer},
		{in: "admin", want: RoleAdmin},
		{in: "user", want: RoleUser},
		{in: "", want: RoleUser},
		{in: "wizard", want: RoleUser},
	}

	for _, tc := range cases {
		if got := ParseRole(tc.in); got != tc.want {
			t.Fatalf("ParseRole(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestIdentityName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		id   Identity
		want string
	}{
		{
			name: "explicit name claim",
			id:   Identity{ID: "u1", Claims: Claims{ClaimName: "Nimal Perera", ClaimEmail: "nimal@example.com"}},
			want: "Nimal Perera",
		},
		{
			name: "fallback to email local part",
			id:   Identity{ID: "u1", Claims: Claims{ClaimEmail: "nimal@example.com"}},
			want: "nimal",
		},
		{
			name: "no claims",
			id:   Identity{ID: "u1", Claims: Claims{}},
			want: "",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.id.Name(); got != tc.want {
				t.Fatalf("Name()=%q want=%q", got, tc.want)
			}
		})
	}
}

func TestMinimalProfile(t *testing.T) {
	t.Parallel()

	id := Identity{ID: "u9", Claims: Claims{
		ClaimRole:  "technician",
		ClaimName:  "Kasun",
		ClaimEmail: "kasun@example.com",
	}}

	p := MinimalProfile(id)
	if p.ID != "u9" || p.Role != RoleTechnician || p.Name != "Kasun" || p.Email != "kasun@example.com" {
		t.Fatalf("unexpected minimal profile: %+v", p)
	}
	if !p.CreatedAt.IsZero() {
		t.Fatalf("claims-derived profile must not invent a creation time")
	}
}

func TestIdentityIsZero(t *testing.T) {
	t.Parallel()

	if !(Identity{}).IsZero() {
		t.Fatalf("empty identity should be zero")
	}
	if (Identity{ID: "u1"}).IsZero() {
		t.Fatalf("identity with id should not be zero")
	}
}
