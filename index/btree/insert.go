package btree

import "github.com/wrendb/wrendb/record"

// Insert adds key/rid as a new leaf entry, splitting nodes up the tree as
// needed, and reports whether the insertion happened. Keys are unique: a
// second insert of an already-present key is rejected (inserted=false)
// rather than overwriting or appending a duplicate entry, matching the
// engine's rule that a unique-index insert on an existing key is a
// duplicate-key error at the statement layer.
func (t *Tree) Insert(key []byte, rid record.ID) (newRoot int, inserted bool, err error) {
	t.rootLatch.Lock()
	defer t.rootLatch.Unlock()

	leafPage, err := t.findLeaf(key)
	if err != nil {
		return noPage, false, err
	}
	leaf, err := t.openNode(leafPage)
	if err != nil {
		return noPage, false, err
	}
	idx, err := leaf.lowerBoundIndex(key)
	if err != nil {
		leaf.close()
		return noPage, false, err
	}
	num, err := leaf.numKeys()
	if err != nil {
		leaf.close()
		return noPage, false, err
	}
	if idx < num {
		existing, err := leaf.keyAt(idx)
		if err != nil {
			leaf.close()
			return noPage, false, err
		}
		cmp, err := t.schema.Compare(existing, key)
		if err != nil {
			leaf.close()
			return noPage, false, err
		}
		if cmp == 0 {
			leaf.close()
			return noPage, false, nil
		}
	}
	if err := leaf.insertLeafAt(idx, key, rid); err != nil {
		leaf.close()
		return noPage, false, err
	}
	num, err = leaf.numKeys()
	leaf.close()
	if err != nil {
		return noPage, false, err
	}

	if idx == 0 {
		if err := t.maintainParent(leafPage); err != nil {
			return noPage, false, err
		}
	}

	if num <= t.maxKeys() {
		return noPage, true, nil
	}

	newPage, sepKey, err := t.splitLeaf(leafPage)
	if err != nil {
		return noPage, false, err
	}
	newRoot, err = t.insertIntoParent(leafPage, sepKey, newPage)
	return newRoot, true, err
}

// maintainParent rewrites separator keys up the ancestor chain after a
// node's first key changes, stopping as soon as an ancestor's separator
// already matches -- everything above it is necessarily already correct.
func (t *Tree) maintainParent(startPage int) error {
	curr := startPage
	for {
		currNode, err := t.openNode(curr)
		if err != nil {
			return err
		}
		parentPage, err := currNode.parent()
		if err != nil {
			currNode.close()
			return err
		}
		if parentPage == noPage {
			currNode.close()
			return nil
		}
		childKey, err := currNode.keyAt(0)
		currNode.close()
		if err != nil {
			return err
		}

		parent, err := t.openNode(parentPage)
		if err != nil {
			return err
		}
		rank, err := parent.indexOfChild(curr)
		if err != nil {
			parent.close()
			return err
		}
		parentKey, err := parent.keyAt(rank)
		if err != nil {
			parent.close()
			return err
		}
		cmp, err := t.schema.Compare(parentKey, childKey)
		if err != nil {
			parent.close()
			return err
		}
		if cmp == 0 {
			parent.close()
			return nil
		}
		if err := parent.setKeyAt(rank, childKey); err != nil {
			parent.close()
			return err
		}
		parent.close()
		curr = parentPage
	}
}

// splitLeaf moves the upper half of oldPage's entries into a freshly
// allocated right sibling, relinks the leaf chain around it, and returns
// the new page along with its first key (the separator to insert above).
func (t *Tree) splitLeaf(oldPage int) (int, []byte, error) {
	old, err := t.openNode(oldPage)
	if err != nil {
		return 0, nil, err
	}
	defer old.close()

	num, err := old.numKeys()
	if err != nil {
		return 0, nil, err
	}
	splitPoint := t.minKeys()

	parentPage, err := old.parent()
	if err != nil {
		return 0, nil, err
	}

	newPage, err := t.allocatePage()
	if err != nil {
		return 0, nil, err
	}
	newNode, err := t.openNode(newPage)
	if err != nil {
		return 0, nil, err
	}
	defer newNode.close()
	if err := newNode.formatLeaf(parentPage); err != nil {
		return 0, nil, err
	}

	for i := splitPoint; i < num; i++ {
		k, err := old.keyAt(i)
		if err != nil {
			return 0, nil, err
		}
		r, err := old.ridAt(i)
		if err != nil {
			return 0, nil, err
		}
		if err := newNode.insertLeafAt(i-splitPoint, k, r); err != nil {
			return 0, nil, err
		}
	}
	if err := old.setNumKeys(splitPoint); err != nil {
		return 0, nil, err
	}

	oldNext, err := old.nextLeaf()
	if err != nil {
		return 0, nil, err
	}
	if err := newNode.setNextLeaf(oldNext); err != nil {
		return 0, nil, err
	}
	if err := newNode.setPrevLeaf(oldPage); err != nil {
		return 0, nil, err
	}
	if err := old.setNextLeaf(newPage); err != nil {
		return 0, nil, err
	}
	if oldNext != noPage {
		nextNode, err := t.openNode(oldNext)
		if err != nil {
			return 0, nil, err
		}
		err = nextNode.setPrevLeaf(newPage)
		nextNode.close()
		if err != nil {
			return 0, nil, err
		}
	} else {
		if err := t.setLastLeaf(newPage); err != nil {
			return 0, nil, err
		}
	}

	sepKey, err := newNode.keyAt(0)
	if err != nil {
		return 0, nil, err
	}
	return newPage, sepKey, nil
}

// splitInternal is splitLeaf's counterpart for internal nodes: the moved
// children are reparented to the new node, and no leaf chain is touched.
func (t *Tree) splitInternal(oldPage int) (int, []byte, error) {
	old, err := t.openNode(oldPage)
	if err != nil {
		return 0, nil, err
	}
	defer old.close()

	num, err := old.numKeys()
	if err != nil {
		return 0, nil, err
	}
	splitPoint := t.minKeys()

	parentPage, err := old.parent()
	if err != nil {
		return 0, nil, err
	}

	newPage, err := t.allocatePage()
	if err != nil {
		return 0, nil, err
	}
	newNode, err := t.openNode(newPage)
	if err != nil {
		return 0, nil, err
	}
	defer newNode.close()
	if err := newNode.formatInternal(parentPage); err != nil {
		return 0, nil, err
	}

	for i := splitPoint; i < num; i++ {
		k, err := old.keyAt(i)
		if err != nil {
			return 0, nil, err
		}
		c, err := old.childAt(i)
		if err != nil {
			return 0, nil, err
		}
		if err := newNode.insertInternalAt(i-splitPoint, k, c); err != nil {
			return 0, nil, err
		}
		childNode, err := t.openNode(c)
		if err != nil {
			return 0, nil, err
		}
		err = childNode.setParent(newPage)
		childNode.close()
		if err != nil {
			return 0, nil, err
		}
	}
	if err := old.setNumKeys(splitPoint); err != nil {
		return 0, nil, err
	}

	sepKey, err := newNode.keyAt(0)
	if err != nil {
		return 0, nil, err
	}
	return newPage, sepKey, nil
}

// insertIntoParent inserts the separator for a freshly split right sibling
// into oldPage's parent, creating a new root if oldPage had none, and
// recursively splits the parent if that insertion overflows it.
func (t *Tree) insertIntoParent(oldPage int, sepKey []byte, newPage int) (int, error) {
	old, err := t.openNode(oldPage)
	if err != nil {
		return noPage, err
	}
	parentPage, err := old.parent()
	old.close()
	if err != nil {
		return noPage, err
	}

	if parentPage == noPage {
		newRoot, err := t.allocatePage()
		if err != nil {
			return noPage, err
		}
		root, err := t.openNode(newRoot)
		if err != nil {
			return noPage, err
		}
		if err := root.formatInternal(noPage); err != nil {
			root.close()
			return noPage, err
		}

		oldNode, err := t.openNode(oldPage)
		if err != nil {
			root.close()
			return noPage, err
		}
		oldKey0, err := oldNode.keyAt(0)
		if err != nil {
			oldNode.close()
			root.close()
			return noPage, err
		}
		err = oldNode.setParent(newRoot)
		oldNode.close()
		if err != nil {
			root.close()
			return noPage, err
		}

		if err := root.insertInternalAt(0, oldKey0, oldPage); err != nil {
			root.close()
			return noPage, err
		}
		if err := root.insertInternalAt(1, sepKey, newPage); err != nil {
			root.close()
			return noPage, err
		}
		root.close()

		newNode, err := t.openNode(newPage)
		if err != nil {
			return noPage, err
		}
		err = newNode.setParent(newRoot)
		newNode.close()
		if err != nil {
			return noPage, err
		}

		if err := t.setRootPage(newRoot); err != nil {
			return noPage, err
		}
		return newRoot, nil
	}

	parent, err := t.openNode(parentPage)
	if err != nil {
		return noPage, err
	}
	idx, err := parent.indexOfChild(oldPage)
	if err != nil {
		parent.close()
		return noPage, err
	}
	if err := parent.insertInternalAt(idx+1, sepKey, newPage); err != nil {
		parent.close()
		return noPage, err
	}
	num, err := parent.numKeys()
	parent.close()
	if err != nil {
		return noPage, err
	}

	newNode, err := t.openNode(newPage)
	if err != nil {
		return noPage, err
	}
	err = newNode.setParent(parentPage)
	newNode.close()
	if err != nil {
		return noPage, err
	}

	if num <= t.maxKeys() {
		return noPage, nil
	}

	newParentPage, parentSepKey, err := t.splitInternal(parentPage)
	if err != nil {
		return noPage, err
	}
	return t.insertIntoParent(parentPage, parentSepKey, newParentPage)
}
