// Package builtin holds the existing-code migrations compiled into the
// editor for the game's own plugins.
package builtin

import (
	"fmt"

	"github.com/papapumpkin/mapforge/internal/entity"
	"github.com/papapumpkin/mapforge/internal/mapfile"
	"github.com/papapumpkin/mapforge/internal/migration"
)

// EditCollisionTypesName is the manifest name of EditCollisionTypes.
const EditCollisionTypesName = "ExistingCodeMigration.EditCollisionTypes"

// CollisionTypeOptions are the options of EditCollisionTypes.
type CollisionTypeOptions struct {
	OldType string `mapstructure:"oldType"`
	NewType string `mapstructure:"newType"`
}

func decodeCollisionOptions(opts migration.Options) (CollisionTypeOptions, error) {
	var o CollisionTypeOptions
	if err := opts.Decode(&o); err != nil {
		return CollisionTypeOptions{}, err
	}
	if o.OldType == "" || o.NewType == "" {
		return CollisionTypeOptions{}, fmt.Errorf("builtin: %s: oldType and newType are required", EditCollisionTypesName)
	}
	return o, nil
}

func renameCollisionType(attr mapfile.Attribute, o CollisionTypeOptions) mapfile.Attribute {
	if attr["collisionType"] == o.OldType {
		attr["collisionType"] = o.NewType
	}
	return attr
}

// EditCollisionTypes renames one collision type to another in every
// collision attribute.
func EditCollisionTypes() migration.ExistingCode {
	return migration.ExistingCode{
		Name: EditCollisionTypesName,
		RawMap: func(t migration.Tools) migration.MapFunc {
			return t.AttributeMigration("collision", func(attr mapfile.Attribute, opts migration.Options) (mapfile.Attribute, error) {
				o, err := decodeCollisionOptions(opts)
				if err != nil {
					return nil, err
				}
				return renameCollisionType(attr, o), nil
			})
		},
		EntitySystem: func(sys entity.System, opts migration.Options) (entity.System, error) {
			o, err := decodeCollisionOptions(opts)
			if err != nil {
				return nil, err
			}
			for _, key := range sys.Keys() {
				if attr, ok := sys[key]["collision"]; ok {
					sys[key]["collision"] = renameCollisionType(attr, o)
				}
			}
			return sys, nil
		},
	}
}

// All returns every built-in existing-code migration.
func All() []migration.ExistingCode {
	return []migration.ExistingCode{
		EditCollisionTypes(),
	}
}

// Register adds every built-in migration to reg.
func Register(reg *migration.Registry) error {
	for _, m := range All() {
		if err := reg.Register(m); err != nil {
			return fmt.Errorf("builtin: %w", err)
		}
	}
	return nil
}
