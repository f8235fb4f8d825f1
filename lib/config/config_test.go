// config_test.go tests config files
package config

import (
	"errors"
	"os"
	"testing"

	"github.com/tarancss/acctpanel/lib/account"
)

// fileToTest is a relative path to the configuration file to test (ie. acctpanel/cmd/conf.json)
var fileToTest string = "../../cmd/conf.json"

// TestConfig extracts config from a file and checks values loaded
func TestConfig(t *testing.T) {
	conf, err := ExtractConfiguration(fileToTest)
	if err != nil {
		t.Fatalf("Error reading config file:%v\n", err)
	}
	// lets check the port
	if conf.Port != "3030" {
		t.Errorf("config port is not the expected %s", conf.Port)
	}
	// and the networks
	if len(conf.Networks) != 3 || conf.Networks[0] != "mainNet" || conf.Networks[2] != "polygon" {
		t.Errorf("networks do not match the expected %v", conf.Networks)
	}
	// and the display table
	order, err := conf.Order()
	if err != nil || len(order) != 4 || order[0] != account.Internal || order[3] != account.Ledger {
		t.Errorf("order does not match the expected %v err:%v", order, err)
	}
	details, err := conf.Details()
	if err != nil || details[account.Imported].Label != "Others" || details[account.ReadOnly].Title != "Read-only" {
		t.Errorf("details do not match the expected %v err:%v", details, err)
	}
	if opts, err := conf.GroupOptions(); err != nil || len(opts) != 3 {
		t.Errorf("group options err:%v", err)
	}
}

// TestConfigEnv checks OS ENV variables override the defaults
func TestConfigEnv(t *testing.T) {
	os.Setenv("ACCT_PORT", "4040")
	os.Setenv("ACCT_NETWORKS", `["polygon"]`)
	os.Setenv("ACCT_KEYRINGLOCKING", "false")
	os.Setenv("ACCT_HDSEED", "00ff")
	os.Setenv("ACCT_CATEGORIES", `[{"type":"read-only","label":"Watched"}]`)
	defer func() {
		os.Unsetenv("ACCT_PORT")
		os.Unsetenv("ACCT_NETWORKS")
		os.Unsetenv("ACCT_KEYRINGLOCKING")
		os.Unsetenv("ACCT_HDSEED")
		os.Unsetenv("ACCT_CATEGORIES")
	}()

	conf, err := ExtractConfiguration("")
	if err != nil {
		t.Fatalf("Error reading defaults:%v", err)
	}
	if conf.Port != "4040" || len(conf.Networks) != 1 || conf.Networks[0] != "polygon" || conf.KeyringLocking {
		t.Errorf("env overrides not applied:%+v", conf)
	}
	if conf.Seed != "00ff" {
		t.Errorf("ACCT_HDSEED not applied, seed:%s", conf.Seed)
	}
	if len(conf.Categories) != 1 || conf.Categories[0].Type != "read-only" {
		t.Errorf("ACCT_CATEGORIES not applied:%+v", conf.Categories)
	}

	// overrides leave the defaults untouched
	if len(NetworksDefault) != 2 || NetworksDefault[0] != "mainNet" || NetworksDefault[1] != "goerli" {
		t.Errorf("default networks modified:%v", NetworksDefault)
	}
	if len(CategoriesDefault) != 4 || CategoriesDefault[0].Type != "internal" {
		t.Errorf("default categories modified:%+v", CategoriesDefault)
	}
	conf.Networks[0] = "changed"
	conf.Categories[0].Label = "changed"
	os.Unsetenv("ACCT_NETWORKS")
	os.Unsetenv("ACCT_CATEGORIES")
	if def, err := ExtractConfiguration(""); err != nil {
		t.Fatalf("Error reading defaults:%v", err)
	} else if len(def.Networks) != 2 || def.Networks[0] != "mainNet" || def.Categories[0].Label == "changed" {
		t.Errorf("defaults shared between configurations:%+v", def)
	}

	os.Setenv("ACCT_KEYRINGLOCKING", "maybe")
	if _, err = ExtractConfiguration(""); err == nil {
		t.Errorf("a bad boolean should fail")
	}
}

// TestConfigCategories checks the category table is validated
func TestConfigCategories(t *testing.T) {
	conf := ServiceConfig{Categories: []CategoryConfig{{Type: "hot"}}}
	if _, err := conf.Order(); !errors.Is(err, account.ErrBadCategory) {
		t.Errorf("unknown category should fail, err:%v", err)
	}
	conf.Categories = nil
	if _, err := conf.Details(); !errors.Is(err, ErrNoCategories) {
		t.Errorf("empty table should fail, err:%v", err)
	}
	if _, err := ExtractConfiguration("does-not-exist.json"); err == nil {
		t.Errorf("a missing file should fail")
	}
}
